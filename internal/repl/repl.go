package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"loquora/internal/evaluator"
	"loquora/internal/object"
	"loquora/internal/parser"
	"loquora/internal/token"
	"loquora/internal/util"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
)

const (
	PROMPT     = "loq> "
	contPrompt = "...> "
	sourceName = "<repl>"
)

const banner = `loquora %s. Type :help for commands, :quit or Ctrl-D to exit.`

type Options struct {
	Interpreter *evaluator.Interpreter
	Out         io.Writer
	Err         io.Writer
	HistoryFile string
	NoColor     bool
	Version     string
}

// Session evaluates successive inputs against one interpreter, so bindings
// and loaded modules carry over between them.
type Session struct {
	in  *evaluator.Interpreter
	out io.Writer
	err io.Writer

	value *color.Color
	fail  *color.Color
	note  *color.Color
}

func NewSession(opts Options) *Session {
	s := &Session{
		in:    opts.Interpreter,
		out:   opts.Out,
		err:   opts.Err,
		value: color.New(color.FgHiBlue),
		fail:  color.New(color.FgRed),
		note:  color.New(color.FgGreen),
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.in == nil {
		s.in = evaluator.New(nil, s.out)
	}
	if s.err == nil {
		s.err = os.Stderr
	}
	if opts.NoColor {
		s.value.DisableColor()
		s.fail.DisableColor()
		s.note.DisableColor()
	}
	return s
}

// Incomplete reports whether src stops in the middle of a statement, so the
// REPL should keep reading lines before evaluating it.
func Incomplete(src string) bool {
	if strings.TrimSpace(src) == "" {
		return false
	}
	_, err := parser.Parse(src)
	var se *parser.SyntaxError
	return errors.As(err, &se) && se.Found.Type == token.EOF
}

// Eval runs one complete input and prints its value or error. It returns
// false when the input asks the session to end.
func (s *Session) Eval(ctx context.Context, code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, ":") {
		return s.command(trimmed)
	}

	program, err := parser.Parse(code)
	if err != nil {
		s.report(err, code)
		return true
	}
	val, err := s.in.RunContext(ctx, program)
	if err != nil {
		s.report(err, code)
		return true
	}
	if _, isNull := val.(*object.Null); !isNull {
		fmt.Fprintln(s.out, s.value.Sprint(val.Inspect()))
	}
	return true
}

func (s *Session) command(cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q", ":exit":
		return false
	case ":help":
		fmt.Fprintln(s.out, s.note.Sprint(`:modules  list search roots and loaded module files
:reload   forget loaded modules so the next load reads them again
:quit     leave the REPL`))
	case ":modules":
		stats := s.in.Loader().Stats()
		fmt.Fprintln(s.out, s.note.Sprint("search roots: "+strings.Join(s.in.Loader().Roots(), ", ")))
		for _, p := range s.in.Loader().Paths() {
			fmt.Fprintln(s.out, p)
		}
		fmt.Fprintln(s.out, s.note.Sprintf("%d modules, %d reads, %d cache hits", stats.Modules, stats.Reads, stats.Hits))
	case ":reload":
		s.in.Loader().Clear()
		fmt.Fprintln(s.out, s.note.Sprint("module cache cleared"))
	default:
		fmt.Fprintln(s.err, s.fail.Sprintf("unknown command %s. Type :help for a list.", cmd))
	}
	return true
}

func (s *Session) report(err error, src string) {
	fmt.Fprint(s.err, s.fail.Sprint(Describe(err, src, sourceName)))
}

// Describe renders a syntax or runtime error against its source.
func Describe(err error, src, file string) string {
	var se *parser.SyntaxError
	if errors.As(err, &se) {
		return fmt.Sprintf("SyntaxError: %s\n  at [%3d:%3d] %s\n\n%s", se.Message, se.Line, se.Column, file,
			util.GetContextLines(src, se.Line, se.Column))
	}
	out := object.RenderStacktrace(err, src, file)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

// Start runs an interactive session on the terminal until :quit or EOF.
func Start(opts Options) error {
	s := NewSession(opts)
	fmt.Fprintln(s.out, s.note.Sprintf(banner, opts.Version))

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if opts.HistoryFile != "" {
		if f, err := os.Open(opts.HistoryFile); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			f, err := os.Create(opts.HistoryFile)
			if err != nil {
				slog.Warn("could not save history", slog.String("file", opts.HistoryFile), slog.Any("error", err))
				return
			}
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}()
	}

	for {
		code, ok := read(ln)
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		// Ctrl-C while a program runs cancels it instead of leaving the REPL.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		more := s.Eval(ctx, code)
		stop()
		if !more {
			return nil
		}
	}
}

// read collects lines until they form a complete input. An aborted prompt
// discards what was typed so far.
func read(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := PROMPT
		if b.Len() > 0 {
			prompt = contPrompt
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			slog.Error("reading input", slog.Any("error", err))
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if src := b.String(); !Incomplete(src) {
			return src, true
		}
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"loquora/internal/evaluator"
	"loquora/internal/modules"
	"loquora/internal/parser"
	"loquora/internal/repl"
	"loquora/internal/util"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
)

const (
	DefaultRootPath = "."
	historyFile     = ".loq_history"
)

var (
	// Version is the current version of the loq binary, set at link time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	rootPath    string
	searchPaths pathList
	configFile  string
	stdlibDB    string
	stdlibSync  string
	debugAST    bool
	watch       bool
	noColor     bool
)

// pathList collects a repeatable string flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, string(os.PathListSeparator)) }

func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// loader config
	flag.StringVar(&rootPath, "root", DefaultRootPath, "Set the root context for the program (used for loads)")
	flag.Var(&searchPaths, "path", "Add a module search root (repeatable)")
	flag.StringVar(&configFile, "config", "", "Project config file (default: loq.toml or loq.yaml in the root)")
	flag.StringVar(&stdlibDB, "stdlib-db", "", "Serve std modules from a database, as driver:dsn")
	flag.StringVar(&stdlibSync, "stdlib-sync", "", "Copy the .loq files under a directory into the stdlib database")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Dump the AST next to the source file")
	// runtime config
	flag.BoolVar(&watch, "watch", false, "Re-run the program when it or a loaded module changes")
	flag.BoolVar(&noColor, "no-color", false, "Disable colored output")
	// log config
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {

	flag.Parse()

	config := util.Configuration{
		Version:     Version,
		BuildDate:   BuildDate,
		Commit:      Commit,
		RootPath:    rootPath,
		SearchPaths: searchPaths,
		StdlibDSN:   stdlibDB,
		LoqHome:     os.Getenv("LOQ_HOME"),
		LogLevel:    logLevel,
		LogFile:     logFile,
		DebugAST:    debugAST,
		Watch:       watch,
		NoColor:     noColor,
	}
	slog.SetDefault(config.NewLogger())

	if version {
		printVersion()
		return
	}

	if help {
		printHelp()
		return
	}

	os.Exit(run(config, flag.Arg(0)))
}

func run(config util.Configuration, file string) int {
	project, err := util.LoadProjectConfig(config.RootPath, configFile)
	if err != nil {
		return fail(err)
	}
	if err := util.CheckRequires(project.Requires, config.Version); err != nil {
		return fail(err)
	}
	config.Apply(project)
	if config.NoColor {
		color.NoColor = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	var registry *modules.SQLRegistry
	if config.StdlibDSN != "" {
		registry, err = modules.OpenSQLRegistry(ctx, config.StdlibDSN)
		if err != nil {
			return fail(err)
		}
		defer registry.Close()
	}

	if stdlibSync != "" {
		if registry == nil {
			return fail(errors.New("-stdlib-sync needs a stdlib database (-stdlib-db or stdlib_db in the project config)"))
		}
		n, err := registry.Sync(ctx, stdlibSync)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("synced %d modules from %s\n", n, stdlibSync)
		if names, err := registry.Names(ctx); err == nil {
			slog.Debug("stdlib modules", slog.Any("names", names))
		}
		if file == "" {
			return 0
		}
	}

	newLoader := func() *modules.Loader {
		roots := append(modules.DefaultRoots(config.RootPath, ""), config.SearchPaths...)
		if config.LoqHome != "" {
			roots = append(roots, filepath.Join(config.LoqHome, "lib"))
		}
		opts := []modules.Option{modules.WithRoots(roots...)}
		if registry != nil {
			opts = append(opts, modules.WithStdlib(registry))
		}
		return modules.NewLoader(opts...)
	}

	if file == "" {
		// the REPL handles its own interrupts
		stop()
		home, _ := os.UserHomeDir()
		err := repl.Start(repl.Options{
			Interpreter: evaluator.New(newLoader(), os.Stdout),
			HistoryFile: filepath.Join(home, historyFile),
			NoColor:     config.NoColor,
			Version:     config.Version,
		})
		if err != nil {
			return fail(err)
		}
		return 0
	}

	if config.Watch {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		if err := watchFile(ctx, config, file, newLoader); err != nil {
			return fail(err)
		}
		return 0
	}

	if err := runFile(ctx, config, file, newLoader()); err != nil {
		return 1
	}
	return 0
}

// runFile runs one program with a fresh interpreter. Program errors are
// printed with their source context before being returned.
func runFile(ctx context.Context, config util.Configuration, file string, loader *modules.Loader) error {
	data, err := os.ReadFile(file)
	if err != nil {
		fail(err)
		return err
	}
	src := string(data)

	program, err := parser.Parse(src)
	if err != nil {
		printProgramError(err, src, file)
		return err
	}

	if config.DebugAST {
		astFile := strings.TrimSuffix(file, filepath.Ext(file)) + ".ast"
		if err := parser.WriteASTToFile(program, astFile); err != nil {
			slog.Warn("failed to write AST dump", slog.String("file", astFile), slog.Any("error", err))
		}
	}

	slog.Debug("running program", slog.String("file", file))
	in := evaluator.New(loader, os.Stdout)
	if _, err := in.RunContext(ctx, program); err != nil {
		printProgramError(err, src, file)
		return err
	}
	return nil
}

func printProgramError(err error, src, file string) {
	fmt.Fprint(os.Stderr, color.RedString("%s", repl.Describe(err, src, file)))
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
	return 1
}

func printVersion() {

	fmt.Printf("loq version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: loq [options] [filename]

Options:
  -root <path>          Set the root context for the program (used for loads). Default is '.'
  -path <dir>           Add a module search root after the defaults. Repeatable.
  -config <file>        Project config file. Default is loq.toml, loq.yaml or loq.yml in the root.
  -stdlib-db <drv:dsn>  Serve std modules from sqlite3, mysql or postgres.
  -stdlib-sync <dir>    Copy the .loq files under dir into the stdlib database.
  -debug-ast            Dump the parsed AST to <filename>.ast.
  -watch                Re-run the program when it or a loaded module changes.
  -no-color             Disable colored output.
  -help                 Display this help information and exit.
  -version              Display version information and exit.
  -log-level <level>    Set the log level: debug, info, warn, error, none. Default is 'error'.
  -log-file <path>      Specify a log file to write logs. Default is stderr.

Details:
Modules named in load statements are looked up in the stdlib database, when one
is configured, then in the root, root/src, root/.loq/std, the -path and
search_paths directories and $LOQ_HOME/lib.
Without a filename loq starts an interactive session.

Examples:
  loq                               Start the REPL
  loq main.loq                      Execute the provided file
  loq -watch -path vendor main.loq  Re-run on change, with an extra module root
  loq -stdlib-db sqlite3:std.db -stdlib-sync ./stdlib

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

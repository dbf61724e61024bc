package repl

import (
	"bytes"
	"context"
	"loquora/internal/evaluator"
	"loquora/internal/modules"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncomplete(t *testing.T) {
	tests := []struct {
		input      string
		incomplete bool
	}{
		{"", false},
		{"1 + 2;", false},
		{"x = 4", false},
		{"tool f(a) {", true},
		{"tool f(a) {\n  return a;", true},
		{"tool f(a) {\n  return a;\n}", false},
		{"x = (1 +", true},
		{"if true { print(1); } else {", true},
		{"1 + ;", false},
		{")", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.incomplete, Incomplete(tt.input), "%q", tt.input)
	}
}

func newSession(t *testing.T) (*Session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	loader := modules.NewLoader(modules.WithRoots(t.TempDir()))
	s := NewSession(Options{
		Interpreter: evaluator.New(loader, &out),
		Out:         &out,
		Err:         &errOut,
		NoColor:     true,
	})
	return s, &out, &errOut
}

func TestSessionKeepsBindings(t *testing.T) {
	s, out, errOut := newSession(t)
	ctx := context.Background()

	assert.True(t, s.Eval(ctx, "tool double(n) { return n * 2; }"))
	assert.True(t, s.Eval(ctx, "x = double(21);"))
	assert.True(t, s.Eval(ctx, "x;"))
	assert.True(t, s.Eval(ctx, "print(\"hi\");"))

	assert.Equal(t, "42\nhi\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestSessionReportsErrors(t *testing.T) {
	s, out, errOut := newSession(t)
	ctx := context.Background()

	assert.True(t, s.Eval(ctx, "y = 1 / 0;"))
	assert.Contains(t, errOut.String(), "RuntimeError: division by zero")
	assert.Contains(t, errOut.String(), "^ here")

	errOut.Reset()
	assert.True(t, s.Eval(ctx, "1 + ;"))
	assert.Contains(t, errOut.String(), "SyntaxError:")

	// the session survives failed inputs
	assert.True(t, s.Eval(ctx, "2 + 2;"))
	assert.Equal(t, "4\n", out.String())
}

func TestSessionCommands(t *testing.T) {
	s, out, errOut := newSession(t)
	ctx := context.Background()

	assert.True(t, s.Eval(ctx, ":help"))
	assert.Contains(t, out.String(), ":reload")

	out.Reset()
	assert.True(t, s.Eval(ctx, ":modules"))
	assert.Contains(t, out.String(), "search roots: ")
	assert.Contains(t, out.String(), "0 modules, 0 reads, 0 cache hits\n")

	assert.True(t, s.Eval(ctx, ":nope"))
	assert.Contains(t, errOut.String(), "unknown command :nope")

	assert.False(t, s.Eval(ctx, ":quit"))
	assert.False(t, s.Eval(ctx, "  :Q  "))
}

func TestSessionReloadRereadsModules(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "greet"+modules.SourceExt)
	require.NoError(t, os.WriteFile(file, []byte(`export tool greet() { return "v1"; }`), 0o644))

	var out, errOut bytes.Buffer
	loader := modules.NewLoader(modules.WithRoots(dir))
	s := NewSession(Options{Interpreter: evaluator.New(loader, &out), Out: &out, Err: &errOut, NoColor: true})
	ctx := context.Background()

	s.Eval(ctx, "load greet; greet();")
	require.NoError(t, os.WriteFile(file, []byte(`export tool greet() { return "v2"; }`), 0o644))
	s.Eval(ctx, "load greet; greet();")
	s.Eval(ctx, ":reload")
	s.Eval(ctx, "load greet; greet();")

	assert.Equal(t, "\"v1\"\n\"v1\"\nmodule cache cleared\n\"v2\"\n", out.String())
	assert.Empty(t, errOut.String())
}

package modules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, dir, rel, src string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel)+SourceExt)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// countingReader counts reads per file.
func countingReader(counts map[string]int) func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		counts[filepath.Base(name)]++
		return os.ReadFile(name)
	}
}

func TestRepeatedLoadIsCached(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "util/math", `export tool double(x) { return x * 2; }`)

	counts := map[string]int{}
	l := NewLoader(WithRoots(dir), WithReadFile(countingReader(counts)))
	ctx := context.Background()

	first, err := l.Load(ctx, []string{"util", "math"}, false)
	require.NoError(t, err)
	second, err := l.Load(ctx, []string{"util", "math"}, false)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, counts["math.loq"])
	assert.Equal(t, CacheStats{Modules: 1, Reads: 1, Hits: 1}, l.Stats())
	assert.Contains(t, first.Exports.Tools, "double")
}

func TestSelfLoadIsCircular(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "a", "load a;\nexport tool f() { return 1; }")

	l := NewLoader(WithRoots(dir))
	_, err := l.Load(context.Background(), []string{"a"}, false)
	require.ErrorIs(t, err, ErrCircularImport)
	assert.Contains(t, err.Error(), "a -> a")
	assert.Equal(t, 0, l.Stats().Modules, "failed module must not stay cached")
}

func TestTransitiveCycle(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "a", "load b;")
	writeModule(t, dir, "b", "load c;")
	writeModule(t, dir, "c", "import a;")

	l := NewLoader(WithRoots(dir))
	_, err := l.Load(context.Background(), []string{"a"}, false)
	require.ErrorIs(t, err, ErrCircularImport)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
}

func TestDiamondIsNotACycle(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "top", "load left; load right;")
	writeModule(t, dir, "left", "load base;")
	writeModule(t, dir, "right", "load base;")
	writeModule(t, dir, "base", "export struct P { x: Int }")

	counts := map[string]int{}
	l := NewLoader(WithRoots(dir), WithReadFile(countingReader(counts)))
	_, err := l.Load(context.Background(), []string{"top"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["base.loq"])
	assert.Len(t, l.Paths(), 4)
}

func TestModuleNotFound(t *testing.T) {
	l := NewLoader(WithRoots(t.TempDir()))
	_, err := l.Load(context.Background(), []string{"missing", "mod"}, false)
	require.ErrorIs(t, err, ErrModuleNotFound)
	assert.Contains(t, err.Error(), "missing/mod.loq")
}

func TestSearchRootOrder(t *testing.T) {
	root := t.TempDir()
	home := t.TempDir()
	writeModule(t, filepath.Join(root, "src"), "lib", "export tool where() { return \"src\"; }")
	writeModule(t, filepath.Join(home, "lib"), "lib", "export tool where() { return \"home\"; }")
	writeModule(t, filepath.Join(home, "lib"), "extra", "export tool only() { return 1; }")

	l := NewLoader(WithRoots(DefaultRoots(root, home)...))
	m, err := l.Load(context.Background(), []string{"lib"}, false)
	require.NoError(t, err)
	assert.Contains(t, m.File, filepath.Join("src", "lib.loq"))

	m, err = l.Load(context.Background(), []string{"extra"}, false)
	require.NoError(t, err)
	assert.Contains(t, m.Exports.Tools, "only")
}

func TestStdlibTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "strings", "export tool local() { return 1; }")

	reg := MapRegistry{"strings": "export tool upper(s) { return s; }"}
	l := NewLoader(WithRoots(dir), WithStdlib(reg))

	m, err := l.Load(context.Background(), []string{"strings"}, false)
	require.NoError(t, err)
	assert.True(t, m.Stdlib())
	assert.Equal(t, "std:strings", m.Key)
	assert.Contains(t, m.Exports.Tools, "upper")
	assert.NotContains(t, m.Exports.Tools, "local")

	_, err = l.Load(context.Background(), []string{"strings"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Stats().Hits)
	assert.True(t, l.Invalidate("std:strings"))
}

func TestOnlyExportedDeclarations(t *testing.T) {
	src := `
tool hidden() { return 0; }
struct Secret { a: Int }
export tool shown() { return 1; }
export struct Point { x: Int, y: Int }
export template Hello(name: String) { "hi {{name}}" }
schema S { a: Int }
`
	l := NewLoader(WithStdlib(MapRegistry{"m": src}))
	m, err := l.Load(context.Background(), []string{"m"}, false)
	require.NoError(t, err)

	assert.Len(t, m.Exports.Tools, 1)
	assert.Contains(t, m.Exports.Tools, "shown")
	assert.Len(t, m.Exports.Types, 2)
	assert.Contains(t, m.Exports.Types, "Point")
	assert.Contains(t, m.Exports.Types, "Hello")
}

func TestSyntaxErrorNamesModule(t *testing.T) {
	l := NewLoader(WithStdlib(MapRegistry{"broken": "tool ( {"}))
	_, err := l.Load(context.Background(), []string{"broken"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module broken")
}

func TestLoadAndRunRunsOnce(t *testing.T) {
	reg := MapRegistry{
		"setup": "print(1);",
		"main":  "load-and-run setup;",
	}
	var ran []string
	l := NewLoader(WithStdlib(reg))
	l.SetRunner(func(_ context.Context, m *Module) error {
		ran = append(ran, m.Name)
		return nil
	})
	ctx := context.Background()

	_, err := l.Load(ctx, []string{"main"}, false)
	require.NoError(t, err)
	_, err = l.Load(ctx, []string{"setup"}, true)
	require.NoError(t, err)
	_, err = l.Load(ctx, []string{"main"}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"setup", "main"}, ran)
}

func TestInvalidateAndClear(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, "m", "export tool v() { return 1; }")

	counts := map[string]int{}
	l := NewLoader(WithRoots(dir), WithReadFile(countingReader(counts)))
	ctx := context.Background()

	_, err := l.Load(ctx, []string{"m"}, false)
	require.NoError(t, err)
	assert.True(t, l.Invalidate(path))
	assert.False(t, l.Invalidate(path))

	_, err = l.Load(ctx, []string{"m"}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["m.loq"])

	l.Clear()
	assert.Empty(t, l.Paths())
	assert.Equal(t, CacheStats{}, l.Stats())
}

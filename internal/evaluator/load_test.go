package evaluator

import (
	"loquora/internal/modules"
	"loquora/internal/object"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const geoModule = `
export tool area(w, h) { return w * h; }
export struct Rect { w: Int, h: Int }
export template Label(name) { "rect {{name}}" }
tool hidden() { return 0; }
`

func moduleDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, filepath.FromSlash(name)+modules.SourceExt)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func TestUnaliasedLoadMergesExports(t *testing.T) {
	dir := moduleDir(t, map[string]string{"shapes/geo": geoModule})
	in, _ := newTestInterpreter(t, dir)

	val, err := in.RunSource("load shapes/geo;\nr = Rect { w: 2, h: 3 };\narea(r.w, r.h);")
	require.NoError(t, err)
	assert.Equal(t, "6", val.Inspect())

	val, err = in.RunSource(`Label("a");`)
	require.NoError(t, err)
	assert.Equal(t, `"rect a"`, val.Inspect())

	_, err = in.RunSource("hidden();")
	assert.ErrorIs(t, err, object.ErrUndefinedVariable)
}

func TestAliasedLoadBindsModule(t *testing.T) {
	dir := moduleDir(t, map[string]string{"geo": geoModule})
	in, _ := newTestInterpreter(t, dir)

	val, err := in.RunSource("import geo as g;\ng.area(2, 5);")
	require.NoError(t, err)
	assert.Equal(t, "10", val.Inspect())

	val, err = in.RunSource("r = g.Rect { w: 1, h: 4 }; r.h;")
	require.NoError(t, err)
	assert.Equal(t, "4", val.Inspect())

	val, err = in.RunSource("g;")
	require.NoError(t, err)
	assert.Equal(t, "module<1 tools, 1 structs, 1 templates>", val.Inspect())

	_, err = in.RunSource("area(1, 1);")
	assert.ErrorIs(t, err, object.ErrUndefinedVariable)

	_, err = in.RunSource("g.hidden();")
	assert.ErrorIs(t, err, object.ErrFieldNotFound)

	_, err = in.RunSource("g.Missing { };")
	assert.ErrorIs(t, err, object.ErrUndefinedType)
}

func TestCircularLoad(t *testing.T) {
	dir := moduleDir(t, map[string]string{
		"cyc":   "load cyc;",
		"left":  "load right;",
		"right": "load left;",
	})

	_, _, err := runIn(t, dir, "load cyc;")
	assert.ErrorIs(t, err, modules.ErrCircularImport)

	_, _, err = runIn(t, dir, "load left;")
	assert.ErrorIs(t, err, modules.ErrCircularImport)
}

func TestRepeatedLoadReadsOnce(t *testing.T) {
	dir := moduleDir(t, map[string]string{"geo": geoModule})
	in, _ := newTestInterpreter(t, dir)

	_, err := in.RunSource("load geo; load geo as g; import geo;")
	require.NoError(t, err)
	assert.Equal(t, 1, in.Loader().Stats().Reads)
}

func TestLoadAndRunExecutesOnce(t *testing.T) {
	dir := moduleDir(t, map[string]string{
		"setup": `print("setup ran");
export tool ready() { return true; }`,
	})

	_, out, err := runIn(t, dir, "load-and-run setup; load-and-run setup; ready();")
	require.NoError(t, err)
	assert.Equal(t, "setup ran\n", out)
}

func TestLoadAndRunFailureIsReported(t *testing.T) {
	dir := moduleDir(t, map[string]string{"bad": "x = 1 / 0;"})

	_, _, err := runIn(t, dir, "load-and-run bad;")
	assert.ErrorIs(t, err, object.ErrDivisionByZero)
}

func TestMissingModule(t *testing.T) {
	_, _, err := runIn(t, t.TempDir(), "load nowhere/else;")
	require.ErrorIs(t, err, modules.ErrModuleNotFound)
	assert.Contains(t, err.Error(), "nowhere/else.loq")
}

func TestStdlibModule(t *testing.T) {
	reg := modules.MapRegistry{"std/text": `export tool twice(s) { return s + s; }`}
	in := New(modules.NewLoader(modules.WithRoots(t.TempDir()), modules.WithStdlib(reg)), nil)

	val, err := in.RunSource(`load std.text; twice("ab");`)
	require.NoError(t, err)
	assert.Equal(t, `"abab"`, val.Inspect())
}

func runIn(t *testing.T, dir, src string) (object.Object, string, error) {
	t.Helper()
	in, out := newTestInterpreter(t, dir)
	val, err := in.RunSource(src)
	return val, out.String(), err
}

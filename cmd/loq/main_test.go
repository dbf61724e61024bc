package main

import (
	"bytes"
	"context"
	"flag"
	"loquora/internal/modules"
	"loquora/internal/util"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathListFlag(t *testing.T) {
	var paths pathList
	fs := flag.NewFlagSet("loq", flag.ContinueOnError)
	fs.Var(&paths, "path", "")
	require.NoError(t, fs.Parse([]string{"-path", "a", "-path", "b", "main.loq"}))
	assert.Equal(t, pathList{"a", "b"}, paths)
	assert.Equal(t, "main.loq", fs.Arg(0))
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib"+modules.SourceExt),
		[]byte(`export tool twice(n) { return n * 2; }`), 0o644))
	good := filepath.Join(dir, "good.loq")
	require.NoError(t, os.WriteFile(good, []byte("load lib; x = twice(4);"), 0o644))
	bad := filepath.Join(dir, "bad.loq")
	require.NoError(t, os.WriteFile(bad, []byte("x = 1 / 0;"), 0o644))

	config := util.Configuration{RootPath: dir, DebugAST: true, NoColor: true}
	loader := modules.NewLoader(modules.WithRoots(modules.DefaultRoots(dir, "")...))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, runFile(ctx, config, good, loader))
	assert.Equal(t, 1, loader.Stats().Modules)

	dump, err := os.ReadFile(filepath.Join(dir, "good.ast"))
	require.NoError(t, err)
	assert.True(t, bytes.Contains(dump, []byte("LoadStatement")))

	assert.Error(t, runFile(ctx, config, bad, modules.NewLoader(modules.WithRoots(dir))))
	assert.Error(t, runFile(ctx, config, filepath.Join(dir, "missing.loq"), loader))
}

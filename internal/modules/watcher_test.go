package modules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	watched := writeModule(t, dir, "main", "print(1);")
	other := writeModule(t, dir, "other", "print(2);")

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(watched))

	require.NoError(t, os.WriteFile(other, []byte("print(3);"), 0o644))
	require.NoError(t, os.WriteFile(watched, []byte("print(4);"), 0o644))

	abs, _ := filepath.Abs(watched)
	select {
	case changed := <-w.Changes():
		got, _ := filepath.Abs(changed)
		require.Equal(t, abs, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

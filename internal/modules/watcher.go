package modules

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports writes to a fixed set of source files. Directories are
// watched rather than the files so editors that replace files on save are
// still seen.
type Watcher struct {
	w       *fsnotify.Watcher
	mu      sync.Mutex
	files   map[string]bool
	changes chan string
	errs    chan error
}

func NewWatcher() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &Watcher{
		w:       w,
		files:   make(map[string]bool),
		changes: make(chan string, 16),
		errs:    make(chan error, 1),
	}
	go fw.loop()
	return fw, nil
}

func (fw *Watcher) Watch(files ...string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		if fw.files[abs] {
			continue
		}
		if err := fw.w.Add(filepath.Dir(abs)); err != nil {
			return err
		}
		fw.files[abs] = true
	}
	return nil
}

func (fw *Watcher) loop() {
	defer close(fw.changes)
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !fw.watching(ev.Name) {
				continue
			}
			slog.Debug("source changed", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			select {
			case fw.changes <- ev.Name:
			default:
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.errs <- err:
			default:
			}
		}
	}
}

func (fw *Watcher) watching(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.files[abs]
}

// Changes delivers changed file paths. Bursts may be coalesced.
func (fw *Watcher) Changes() <-chan string { return fw.changes }
func (fw *Watcher) Errors() <-chan error   { return fw.errs }
func (fw *Watcher) Close() error           { return fw.w.Close() }

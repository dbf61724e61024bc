package main

import (
	"context"
	"log/slog"
	"loquora/internal/modules"
	"loquora/internal/util"
	"path/filepath"

	"github.com/fatih/color"
)

// watchFile runs file, then runs it again from a clean module cache each time
// it or one of the files it loaded changes. Program errors are reported and
// watching continues; it returns when ctx is done.
func watchFile(ctx context.Context, config util.Configuration, file string, newLoader func() *modules.Loader) error {
	target, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	w, err := modules.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	runOnce := func() error {
		loader := newLoader()
		_ = runFile(ctx, config, target, loader)
		return w.Watch(append([]string{target}, loader.Paths()...)...)
	}

	if err := runOnce(); err != nil {
		return err
	}
	color.Green("watching %s for changes (Ctrl-C to stop)", file)

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-w.Changes():
			if !ok {
				return nil
			}
			drain(w.Changes())
			slog.Info("source changed", slog.String("file", changed))
			color.Yellow("\n%s changed, re-running %s", changed, file)
			if err := runOnce(); err != nil {
				return err
			}
		case err, ok := <-w.Errors():
			if ok {
				slog.Warn("watch error", slog.Any("error", err))
			}
		}
	}
}

// drain drops changes already queued so one save triggers one run.
func drain(changes <-chan string) {
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

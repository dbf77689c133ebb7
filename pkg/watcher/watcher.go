// Package watcher reports batches of source file changes under a directory
// tree, debounced so an editor's save burst becomes one batch.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const DefaultDelay = 150 * time.Millisecond

type Op int

const (
	Changed Op = iota
	Removed
)

func (o Op) String() string {
	switch o {
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is the last operation seen for a path within a batch.
type Change struct {
	Path string
	Op   Op
}

type Filter func(path string) bool

type Handler func(ctx context.Context, changes []Change)

type Watcher struct {
	fsw     *fsnotify.Watcher
	delay   time.Duration
	filter  Filter
	handler Handler
}

// New creates a watcher that passes changed paths accepted by filter to
// handler. A nil filter accepts every path.
func New(delay time.Duration, filter Filter, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating fsnotify watcher: %w", err)
	}

	if delay <= 0 {
		delay = DefaultDelay
	}
	if filter == nil {
		filter = func(string) bool { return true }
	}

	return &Watcher{fsw: fsw, delay: delay, filter: filter, handler: handler}, nil
}

// AddRecursive watches root and every directory below it.
func (w *Watcher) AddRecursive(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return errors.Errorf("walking %s: %w", root, err)
	}
	return nil
}

// Run delivers batches until ctx is done, then releases the watcher. The
// handler runs on Run's goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	defer w.fsw.Close()

	pending := map[string]Change{}
	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.AddRecursive(ev.Name); err != nil {
						logger.Warn().Err(err).Msg("cannot watch new directory")
					}
					continue
				}
			}

			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}

			if !w.filter(ev.Name) {
				continue
			}

			op := Changed
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				op = Removed
			}
			pending[ev.Name] = Change{Path: ev.Name, Op: op}

			timer.Reset(w.delay)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("file watcher error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}

			batch := make([]Change, 0, len(pending))
			for _, c := range pending {
				batch = append(batch, c)
			}
			sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
			pending = map[string]Change{}

			logger.Debug().Int("changes", len(batch)).Msg("source changes")
			w.handler(ctx, batch)
		}
	}
}

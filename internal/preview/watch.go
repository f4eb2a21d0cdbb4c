package preview

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/meshdiff/internal/logger"
)

// ErrRemoved is returned by Watcher.Run when a watched file is deleted.
var ErrRemoved = errors.New("watched file removed")

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a fixed set of files. It watches their parent
// directories so that files replaced by rename are still seen.
type Watcher struct {
	Debounce time.Duration

	fsw   *fsnotify.Watcher
	paths map[string]bool
	log   *zap.Logger
}

// NewWatcher watches paths. Every path must exist.
func NewWatcher(paths ...string) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		Debounce: DefaultDebounce,
		fsw:      fsw,
		paths:    make(map[string]bool),
		log:      logger.Named("watch"),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			fsw.Close()
			return nil, err
		}
		w.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run calls onChange with the path of every modified file until ctx ends
// or a watched file is removed. Events within Debounce of each other are
// delivered once, in path order.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if !w.paths[name] || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("event", zap.String("path", name), zap.Stringer("op", ev.Op))
			pending[name] = true
			timer.Reset(w.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching: %w", err)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			slices.Sort(changed)

			for _, p := range changed {
				if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("%w: %s", ErrRemoved, p)
				}
			}
			for _, p := range changed {
				onChange(p)
			}
		}
	}
}

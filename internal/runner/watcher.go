package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors directories for source changes and reports the changed
// files after a quiet period, so editor save bursts collapse into one batch.
type Watcher struct {
	watcher      *fsnotify.Watcher
	extensions   map[string]bool
	debounceTime time.Duration
}

// NewWatcher creates a watcher over dirs (recursively) for files with the
// given extensions.
func NewWatcher(dirs []string, extensions []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[ext] = true
	}

	w := &Watcher{
		watcher:      fsw,
		extensions:   extMap,
		debounceTime: 500 * time.Millisecond,
	}

	for _, dir := range dirs {
		if err := w.addRecursively(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	return w, nil
}

// Watch blocks until ctx is cancelled, invoking onChange with the batch of
// changed files after each quiet period.
func (w *Watcher) Watch(ctx context.Context, onChange func(files []string)) error {
	defer w.watcher.Close()

	accumulated := make(map[string]bool)
	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			// New directories need to be added to the watch set before
			// anything inside them changes.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addRecursively(event.Name)
					continue
				}
			}

			if !w.wants(event) {
				continue
			}

			accumulated[event.Name] = true
			if debounce == nil {
				debounce = time.NewTimer(w.debounceTime)
			} else {
				debounce.Reset(w.debounceTime)
			}
			fire = debounce.C

		case <-fire:
			files := make([]string, 0, len(accumulated))
			for f := range accumulated {
				files = append(files, f)
			}
			accumulated = make(map[string]bool)
			fire = nil
			onChange(files)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) wants(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return w.extensions[strings.ToLower(filepath.Ext(event.Name))]
}

func (w *Watcher) addRecursively(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if base == ".git" || base == "node_modules" {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

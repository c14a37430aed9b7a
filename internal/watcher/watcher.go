package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors an input tree and triggers a run after changes settle
type Watcher struct {
	root     string
	exts     map[string]bool
	ignore   []string
	watcher  *fsnotify.Watcher
	Debounce time.Duration
}

// NewWatcher watches root and every directory below it. Events for files
// whose extension is not in exts, or that live under one of the ignored
// directories, are dropped.
func NewWatcher(root string, exts []string, ignore ...string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     filepath.Clean(root),
		exts:     make(map[string]bool, len(exts)),
		watcher:  fsWatcher,
		Debounce: DefaultDebounce,
	}
	for _, ext := range exts {
		w.exts["."+strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	for _, dir := range ignore {
		if dir != "" {
			w.ignore = append(w.ignore, filepath.Clean(dir))
		}
	}

	if err := w.addTree(w.root); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch folder %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// relevant reports whether the event should schedule a run. New directories
// are added to the watch list as a side effect.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if w.ignored(event.Name) {
		return false
	}
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				log.Printf("Watcher error: %v", err)
			}
			return true
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(event.Name))]
}

// Run blocks until ctx is done, calling fn once per burst of changes.
// Failed runs are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := fn(ctx); err != nil {
				log.Printf("Run failed: %v", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

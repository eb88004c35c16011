package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher is a wrapper for watching file changes in directories.
type Watcher struct {
	watcher   *fsnotify.Watcher
	dirs      map[string]bool
	paths     map[string]bool
	recursive bool
}

// NewWatcher returns a new Watcher.
func NewWatcher(recursive bool) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{watcher, map[string]bool{}, map[string]bool{}, recursive}, nil
}

// Close closes the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// AddPath adds a new path to watch. Files are watched through their directory.
func (w *Watcher) AddPath(root string) error {
	w.paths[root] = true

	info, err := os.Lstat(root)
	if err != nil {
		return err
	}

	if info.Mode().IsRegular() {
		root = filepath.Dir(root)
		if w.dirs[root] {
			return nil
		}
		if err := w.watcher.Add(root); err != nil {
			return err
		}
		w.dirs[root] = true
	} else if info.Mode().IsDir() && w.recursive {
		return filepath.WalkDir(filepath.Clean(root), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if w.dirs[path] {
					return fs.SkipDir
				}
				if err := w.watcher.Add(path); err != nil {
					return err
				}
				w.dirs[path] = true
			}
			return nil
		})
	}
	return nil
}

// watched returns true if the file is a watched path or lies in a watched directory.
func (w *Watcher) watched(name string) bool {
	name = filepath.Clean(name)
	for path := range w.paths {
		if !IsDir(path) {
			if path == name {
				return true
			}
		} else if rel, err := filepath.Rel(path, name); err == nil && rel != ".." && !hasParentPrefix(rel) {
			return true
		}
	}
	return false
}

func hasParentPrefix(rel string) bool {
	return len(rel) > 2 && rel[:2] == ".." && rel[2] == filepath.Separator
}

// Run watches for file changes and sends the names of written files.
func (w *Watcher) Run() chan string {
	files := make(chan string, 10)
	go func() {
		changetimes := map[string]time.Time{}
		for w.watcher.Events != nil && w.watcher.Errors != nil {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					w.watcher.Events = nil
					break
				}
				if !w.watched(event.Name) {
					break
				}

				if info, err := os.Lstat(event.Name); err == nil {
					if info.Mode().IsDir() && w.recursive {
						if event.Op&fsnotify.Create == fsnotify.Create {
							if err := w.AddPath(event.Name); err != nil {
								logger.Error("cannot watch", zap.String("path", event.Name), zap.Error(err))
							}
						}
					} else if info.Mode().IsRegular() {
						if event.Op&fsnotify.Write == fsnotify.Write {
							if t, ok := changetimes[event.Name]; !ok || 100*time.Millisecond < time.Since(t) {
								time.Sleep(100 * time.Millisecond) // wait to make sure write is finished
								files <- event.Name
								changetimes[event.Name] = time.Now()
							}
						}
					}
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					w.watcher.Errors = nil
					break
				}
				logger.Error("watch", zap.Error(err))
			}
		}
		close(files)
	}()
	return files
}

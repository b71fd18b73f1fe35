// Package watch notices files being created, removed or renamed in a
// project while a chat session is open.
package watch

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Matcher reports whether a slash-separated, root-relative path is ignored.
// Directory paths carry a trailing slash.
type Matcher interface {
	Match(rel string) bool
}

// Watcher flags structural changes under a project root: a listed file
// appearing or disappearing. Content-only writes do not count, including
// atomic replacements that surface as a create of an already known name.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	ignore  Matcher
	changed atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	// known holds the absolute paths of listed files. After Start it is
	// only touched by the event loop.
	known map[string]struct{}
}

// Start watches every non-ignored directory under root. ignore may be nil.
func Start(root string, ignore Matcher) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		root:    root,
		watcher: fsw,
		ignore:  ignore,
		done:    make(chan struct{}),
		known:   make(map[string]struct{}),
	}

	if _, err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.eventLoop()
	return w, nil
}

// TakeChanged reports whether a structural change happened since the last
// call and clears the flag.
func (w *Watcher) TakeChanged() bool {
	return w.changed.Swap(false)
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// addTree watches dir and every non-ignored directory below it, and records
// the listed files it finds. It reports whether any file was new.
func (w *Watcher) addTree(dir string) (bool, error) {
	added := false
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to walk %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			if w.listed(path, d) && w.remember(path) {
				added = true
			}
			return nil
		}
		if path != w.root && w.ignored(path+string(filepath.Separator)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Printf("⚠️  Failed to watch %s: %v", path, err)
		}
		return nil
	})
	return added, err
}

// listed mirrors the file listing: regular files with a non-hidden name
// that the ignore rules keep.
func (w *Watcher) listed(path string, d fs.DirEntry) bool {
	return d.Type().IsRegular() && !strings.HasPrefix(d.Name(), ".") && !w.ignored(path)
}

func (w *Watcher) remember(path string) bool {
	if _, ok := w.known[path]; ok {
		return false
	}
	w.known[path] = struct{}{}
	return true
}

// forget drops path, or every known file below it if it was a directory.
func (w *Watcher) forget(path string) bool {
	if _, ok := w.known[path]; ok {
		delete(w.known, path)
		return true
	}
	prefix := path + string(filepath.Separator)
	removed := false
	for p := range w.known {
		if strings.HasPrefix(p, prefix) {
			delete(w.known, p)
			removed = true
		}
	}
	return removed
}

func (w *Watcher) ignored(path string) bool {
	if w.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	// Rel drops the trailing separator that directory patterns need.
	if strings.HasSuffix(path, string(filepath.Separator)) {
		rel += "/"
	}
	return w.ignore.Match(rel)
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	// Hidden entries never show up in the file listing.
	if strings.HasPrefix(filepath.Base(event.Name), ".") || w.ignored(event.Name) {
		return
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if w.forget(event.Name) {
			w.changed.Store(true)
		}
		return
	}

	info, err := os.Lstat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		added, err := w.addTree(event.Name)
		if err != nil {
			log.Printf("⚠️  Failed to watch new directory %s: %v", event.Name, err)
		}
		if added {
			w.changed.Store(true)
		}
		return
	}
	if w.listed(event.Name, fs.FileInfoToDirEntry(info)) && w.remember(event.Name) {
		w.changed.Store(true)
	}
}

package tags

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"habitjournal/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Catalog when one of its tag files changes on disk.
// Directories are watched rather than files so editors that save via
// rename keep triggering events.
type Watcher struct {
	catalog     *Catalog
	watcher     *fsnotify.Watcher
	files       map[string]bool // cleaned absolute paths
	debounceDur time.Duration

	mu       sync.Mutex
	pending  bool
	lastSeen time.Time
	reloads  int
}

// NewWatcher creates a watcher for every file of c.
func NewWatcher(c *Catalog) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		catalog:     c,
		watcher:     fw,
		files:       make(map[string]bool),
		debounceDur: 250 * time.Millisecond,
	}

	dirs := make(map[string]bool)
	for _, p := range c.Paths() {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			logging.TagsWarn("cannot watch %s: %v", dir, err)
		}
	}
	return w, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounceDur / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.TagsWarn("watcher error: %v", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

// Reloads returns how many debounced reloads have run.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil || !w.files[abs] {
		return
	}
	logging.Get(logging.CategoryTags).Debug("%s event for %s", event.Op, event.Name)

	w.mu.Lock()
	w.pending = true
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

// flush reloads once events have been quiet for the debounce duration.
func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastSeen) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	if err := w.catalog.Reload(); err != nil {
		logging.TagsWarn("reload failed: %v", err)
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
}

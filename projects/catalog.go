package projects

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
	"github.com/teranos/homepage/pagination"
)

// DefaultDebounce collapses the burst of events editors emit for one save
const DefaultDebounce = 500 * time.Millisecond

// Catalog serves the current project list. Readers never block: a reload
// swaps in a complete new slice.
type Catalog struct {
	path     string
	logger   *zap.SugaredLogger
	debounce time.Duration

	projects atomic.Pointer[[]Project]

	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewCatalog creates an empty catalog backed by path. Call Reload to read it.
func NewCatalog(path string, log *zap.SugaredLogger) *Catalog {
	c := &Catalog{
		path:     path,
		logger:   logger.OrNop(log),
		debounce: DefaultDebounce,
	}
	c.projects.Store(&[]Project{})
	return c
}

// NewStaticCatalog returns a catalog holding projects, not backed by a file
func NewStaticCatalog(projects []Project) *Catalog {
	c := NewCatalog("", nil)
	c.projects.Store(&projects)
	return c
}

// All returns the current list. Callers must not modify it.
func (c *Catalog) All() []Project {
	return *c.projects.Load()
}

// Page applies the array cursor contract to the current list
func (c *Catalog) Page(p pagination.Params) pagination.Page[Project] {
	return pagination.Slice(c.All(), p)
}

// Reload reads the file again. On failure the previous list stays in place.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return errors.New("catalog has no backing file")
	}

	projects, err := Load(c.path, c.logger)
	if err != nil {
		return err
	}

	c.projects.Store(&projects)
	c.logger.Infow("Projects loaded", logger.FieldFile, c.path, logger.FieldCount, len(projects))
	return nil
}

// Watch reloads the catalog whenever its file is written or replaced, until
// ctx is cancelled. The parent directory is watched so editors that save by
// rename are picked up too.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		return errors.New("catalog has no backing file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}

	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "failed to watch %s", dir)
	}

	go c.watchLoop(ctx, watcher)
	return nil
}

func (c *Catalog) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	target := filepath.Clean(c.path)

	for {
		select {
		case <-ctx.Done():
			c.stopTimer()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				c.logger.Debugw("Projects file changed", logger.FieldFile, event.Name, "op", event.Op.String())
				c.scheduleReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warnw("Projects watcher error", logger.FieldError, err)
		}
	}
}

// scheduleReload debounces rapid file changes and triggers reload
func (c *Catalog) scheduleReload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = time.AfterFunc(c.debounce, func() {
		if err := c.Reload(); err != nil {
			c.logger.Errorw("Projects reload failed, keeping previous list",
				logger.FieldFile, c.path,
				logger.FieldError, err,
			)
		}
	})
}

func (c *Catalog) stopTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
}

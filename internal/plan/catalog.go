package plan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"vmflow/pkg/logging"
)

const catalogSubsystem = "PlanCatalog"

// Catalog tracks the plan documents available in the configured plans
// directory. It seeds itself from a directory listing and keeps the set
// current with an fsnotify watch, so operators see newly dropped plan
// files without restarting the server.
type Catalog struct {
	mu        sync.RWMutex
	directory string
	plans     map[string]bool

	watcher *fsnotify.Watcher
}

// NewCatalog creates a catalog rooted at directory.
func NewCatalog(directory string) *Catalog {
	return &Catalog{
		directory: directory,
		plans:     make(map[string]bool),
	}
}

// Start seeds the catalog and begins watching the plans directory. A
// missing or unwatchable directory degrades to the seeded (possibly
// empty) listing; plan files named explicitly by path still work.
func (c *Catalog) Start(ctx context.Context) error {
	c.seed()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn(catalogSubsystem, "Watcher unavailable, plan listing is static: %v", err)
		return nil
	}
	if err := watcher.Add(c.directory); err != nil {
		logging.Warn(catalogSubsystem, "Cannot watch %s, plan listing is static: %v", c.directory, err)
		watcher.Close()
		return nil
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	go c.processEvents(ctx)

	logging.Info(catalogSubsystem, "Watching %s for plan documents", c.directory)
	return nil
}

// Plans returns the sorted plan file names currently known.
func (c *Catalog) Plans() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.plans))
	for name := range c.plans {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve maps a plan name from the catalog to its full path.
func (c *Catalog) Resolve(name string) string {
	return filepath.Join(c.directory, name)
}

func (c *Catalog) seed() {
	entries, err := os.ReadDir(c.directory)
	if err != nil {
		logging.Warn(catalogSubsystem, "Cannot list plans directory %s: %v", c.directory, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range entries {
		if !entry.IsDir() && isPlanFile(entry.Name()) {
			c.plans[entry.Name()] = true
		}
	}
}

func (c *Catalog) processEvents(ctx context.Context) {
	defer c.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !isPlanFile(name) {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
				c.mu.Lock()
				c.plans[name] = true
				c.mu.Unlock()
				logging.Debug(catalogSubsystem, "Plan available: %s", name)
			case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
				c.mu.Lock()
				delete(c.plans, name)
				c.mu.Unlock()
				logging.Debug(catalogSubsystem, "Plan removed: %s", name)
			}

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn(catalogSubsystem, "Watch error: %v", err)
		}
	}
}

func isPlanFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

package dirconfig

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/benbjohnson/immutable"
	"github.com/jsvensson/docspace/internal/cow"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

// Cache memoizes a Loader per directory for the life of the cache. Keys are
// case-folded, so "A" and "a" share an entry. Entries are never evicted or
// refreshed.
type Cache struct {
	load    Loader
	entries *cow.Map[string, *ConfigFile]
}

// NewCache returns an empty cache backed by load. A nil load uses LoadDir.
func NewCache(load Loader) *Cache {
	if load == nil {
		load = LoadDir
	}
	return &Cache{
		load:    load,
		entries: cow.NewMap[string, *ConfigFile](nil),
	}
}

// Key returns the cache key for dir.
func Key(dir string) string {
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(filepath.Clean(dir))
}

// Load returns the cached config for dir, computing it on a miss. Concurrent
// misses on the same key may each run the loader, but only the first result
// published is kept and every caller gets that same pointer. Loader errors
// are returned to the caller that ran it and are not cached.
func (c *Cache) Load(dir string) (*ConfigFile, error) {
	key := Key(dir)
	if cfg, ok := c.entries.Get(key); ok {
		return cfg, nil
	}

	cfg, err := c.load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config for %s: %w", dir, err)
	}
	if cfg == nil {
		cfg = Default(dir)
	}

	var winner *ConfigFile
	c.entries.Swap(func(cur *immutable.Map[string, *ConfigFile]) *immutable.Map[string, *ConfigFile] {
		if existing, ok := cur.Get(key); ok {
			winner = existing
			return cur
		}
		winner = cfg
		return cur.Set(key, cfg)
	})
	return winner, nil
}

// Len returns the number of cached directories.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// LoadAll loads every directory concurrently and returns the configs in the
// order of dirs. Loads that have not started when one fails are skipped, and
// the first error is returned.
func LoadAll(ctx context.Context, c *Cache, dirs []string) ([]*ConfigFile, error) {
	out := make([]*ConfigFile, len(dirs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg, err := c.Load(dir)
			if err != nil {
				return err
			}
			out[i] = cfg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

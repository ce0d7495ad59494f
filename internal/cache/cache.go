// Package cache keeps Directory objects keyed by canonical path and
// evicts the ones that have aged out, never touching the Pathway: the
// chain of directories from the root to the current location.
package cache

import (
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/dshills/rover/internal/fsobject"
	"github.com/dshills/rover/internal/logging"
	"github.com/dshills/rover/internal/metrics"
	"github.com/dshills/rover/internal/vfs"
)

// ForceCollect passed to GarbageCollect evicts every entry outside the
// Pathway regardless of age.
const ForceCollect time.Duration = -1

// Default periodic collection parameters.
const (
	DefaultGCTicks = 100
	DefaultGCAge   = 1200 * time.Second
)

// DirectoryCache maps canonical paths to directories. It is not safe for
// concurrent use.
type DirectoryCache struct {
	fs      vfs.VFS
	entries map[string]*fsobject.Directory
	pathway []*fsobject.Directory

	now     func() time.Time
	evict   func(*fsobject.Directory)
	log     *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a DirectoryCache.
type Option func(*DirectoryCache)

// WithClock replaces time.Now for age computation and load stamps.
func WithClock(now func() time.Time) Option {
	return func(c *DirectoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEvictHook calls fn for every evicted directory before it is
// cleared, so pending scans of it can be cancelled.
func WithEvictHook(fn func(*fsobject.Directory)) Option {
	return func(c *DirectoryCache) {
		c.evict = fn
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *DirectoryCache) {
		c.log = logging.Component(log, "cache")
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *DirectoryCache) {
		c.metrics = m
	}
}

// New creates an empty cache resolving paths through fsys.
func New(fsys vfs.VFS, opts ...Option) *DirectoryCache {
	c := &DirectoryCache{
		fs:      fsys,
		entries: make(map[string]*fsobject.Directory),
		now:     time.Now,
		log:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Canonical returns the cache key for p.
func (c *DirectoryCache) Canonical(p string) string {
	abs, err := c.fs.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// Get returns the cached directory for p, creating an unloaded one on a
// miss.
func (c *DirectoryCache) Get(p string) *fsobject.Directory {
	key := c.Canonical(p)
	if d, ok := c.entries[key]; ok {
		return d
	}
	d := fsobject.NewDirectory(key)
	d.SetClock(c.now)
	c.entries[key] = d
	c.metrics.SetCacheEntries(len(c.entries))
	return d
}

// Contains reports whether p is cached.
func (c *DirectoryCache) Contains(p string) bool {
	_, ok := c.entries[c.Canonical(p)]
	return ok
}

// Len returns the number of cached directories.
func (c *DirectoryCache) Len() int {
	return len(c.entries)
}

// Paths returns the cached keys in sorted order.
func (c *DirectoryCache) Paths() []string {
	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Pathway returns the protected chain from the root to the current
// directory.
func (c *DirectoryCache) Pathway() []*fsobject.Directory {
	out := make([]*fsobject.Directory, len(c.pathway))
	copy(out, c.pathway)
	return out
}

// SetPathway makes the ancestors of p, root first, the protected chain
// and returns it.
func (c *DirectoryCache) SetPathway(p string) []*fsobject.Directory {
	key := c.Canonical(p)

	var chain []string
	for cur := key; ; {
		chain = append(chain, cur)
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	pathway := make([]*fsobject.Directory, len(chain))
	for i, dir := range chain {
		pathway[len(chain)-1-i] = c.Get(dir)
	}
	c.pathway = pathway
	return c.Pathway()
}

// EnterDir sets the Pathway to p and returns the directory for p.
func (c *DirectoryCache) EnterDir(p string) *fsobject.Directory {
	pathway := c.SetPathway(p)
	return pathway[len(pathway)-1]
}

// GarbageCollect evicts directories outside the Pathway that were last
// loaded more than age ago and are not being scanned, or all of them
// for ForceCollect. Evicted directories are passed to the evict hook and
// cleared. It returns the number evicted.
func (c *DirectoryCache) GarbageCollect(age time.Duration) int {
	protected := make(map[*fsobject.Directory]bool, len(c.pathway))
	for _, d := range c.pathway {
		protected[d] = true
	}

	now := c.now()
	evicted := 0
	for key, d := range c.entries {
		if protected[d] {
			continue
		}
		if age != ForceCollect && (d.Loading() || now.Sub(d.LastLoadedAt) <= age) {
			continue
		}
		delete(c.entries, key)
		if c.evict != nil {
			c.evict(d)
		}
		d.Clear()
		evicted++
	}

	if evicted > 0 {
		c.log.Debug("collected directories", "evicted", evicted, "age", age, "remaining", len(c.entries))
	}
	c.metrics.CacheEvicted(evicted)
	c.metrics.SetCacheEntries(len(c.entries))
	return evicted
}

// Each calls fn for every cached directory in path order.
func (c *DirectoryCache) Each(fn func(*fsobject.Directory)) {
	for _, p := range c.Paths() {
		fn(c.entries[p])
	}
}

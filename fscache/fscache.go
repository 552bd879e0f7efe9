// Package fscache provides the cached existence check for controller
// backing files. Filesystem stats are comparatively expensive under high
// request volume, while the controller file layout changes only at deploy
// time, so the boolean result is memoized with a bounded TTL. Stale reads
// within the TTL window are acceptable and last-writer-wins overwrites of
// the same key are tolerated.
package fscache

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const keyPrefix = "forecourt.fsexists."

// DefaultTTL bounds the staleness of cached existence flags when no TTL
// was configured.
const DefaultTTL = time.Minute

// Cache is the process or shared scope cache consumed by the checker.
// Implementations only need TTL based expiry; no locking guarantees are
// required beyond safe concurrent access.
type Cache interface {
	FetchLocal(key string, def interface{}) interface{}
	StoreLocal(key string, value interface{}, ttl time.Duration)
}

// Key builds the cache key for a path, namespaced to the existence check
// concern.
func Key(path string) string {
	return keyPrefix + strconv.FormatUint(xxhash.Sum64String(path), 16)
}

// Options control checker creation.
type Options struct {

	// Cache holds the memoized existence flags. When nil, caching is
	// disabled.
	Cache Cache

	// TTL of a cached flag. Defaults to DefaultTTL.
	TTL time.Duration

	// Disabled bypasses the cache entirely: every check hits the
	// filesystem. Meant for environments where files change at runtime,
	// like test suites.
	Disabled bool

	// Stat overrides the filesystem check, used by tests to count real
	// checks.
	Stat func(path string) bool

	// OnLookup, when set, is called for every cached lookup with whether
	// it was a hit. Used to feed metrics.
	OnLookup func(hit bool)
}

// Checker performs existence checks for controller backing files.
type Checker struct {
	cache    Cache
	ttl      time.Duration
	disabled bool
	stat     func(string) bool
	onLookup func(bool)
}

func statFile(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func New(o Options) *Checker {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}

	if o.Stat == nil {
		o.Stat = statFile
	}

	return &Checker{
		cache:    o.Cache,
		ttl:      o.TTL,
		disabled: o.Disabled || o.Cache == nil,
		stat:     o.Stat,
		onLookup: o.OnLookup,
	}
}

// Exists reports whether the file at path is present. With caching
// disabled the filesystem is checked every time and the result always
// reflects the current state. With caching enabled, a hit is trusted
// without touching the filesystem, and a miss stores the fresh result as a
// 0/1 flag with the configured TTL.
func (c *Checker) Exists(path string) bool {
	if c.disabled {
		return c.stat(path)
	}

	key := Key(path)
	if v := c.cache.FetchLocal(key, nil); v != nil {
		if c.onLookup != nil {
			c.onLookup(true)
		}

		return v == 1
	}

	if c.onLookup != nil {
		c.onLookup(false)
	}

	exists := c.stat(path)
	flag := 0
	if exists {
		flag = 1
	}

	c.cache.StoreLocal(key, flag, c.ttl)
	return exists
}

type memoryEntry struct {
	value   interface{}
	expires time.Time
}

// MemoryCache is an in-process Cache with TTL based expiry. Expired
// entries are dropped lazily on access.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (m *MemoryCache) FetchLocal(key string, def interface{}) interface{} {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return def
	}

	if time.Now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return def
	}

	return e.value
}

func (m *MemoryCache) StoreLocal(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expires: time.Now().Add(ttl)}
	m.mu.Unlock()
}

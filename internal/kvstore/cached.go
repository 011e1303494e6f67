package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var _ Store = (*CachedStore)(nil)

const minCacheSizeBytes = 512 * 1024

// CachedStore is a read-through cache in front of another store. Writes go through
// to the inner store first and then refresh the cached value.
// A read only fills the cache if no write or invalidation of the key happened while
// it was reading the inner store, so a slow reader never caches a superseded value.
type CachedStore struct {
	inner Store
	cache *freecache.Cache
	// ttlSeconds of 0 means cached values never expire
	ttlSeconds   int
	onInvalidate func(key string)

	mu sync.Mutex
	// generations are bumped on every write, delete and invalidation of a key
	generations map[string]uint64
}

func NewCachedStore(inner Store, sizeBytes int, ttlSeconds int) *CachedStore {
	if sizeBytes < minCacheSizeBytes {
		sizeBytes = minCacheSizeBytes
	}
	return &CachedStore{
		inner:       inner,
		cache:       freecache.NewCache(sizeBytes),
		ttlSeconds:  ttlSeconds,
		generations: make(map[string]uint64),
	}
}

func (c *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, err := c.cache.Get([]byte(key)); err == nil {
		return value, nil
	}

	c.mu.Lock()
	generation := c.generations[key]
	c.mu.Unlock()

	value, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key] != generation {
		// written or invalidated meanwhile, the value read may already be stale
		return value, nil
	}
	c.fill(key, value)
	return value, nil
}

func (c *CachedStore) Set(ctx context.Context, key string, value []byte) error {
	err := c.inner.Set(ctx, key, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	if err != nil {
		c.cache.Del([]byte(key))
		return err
	}
	c.fill(key, value)
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	err := c.inner.Delete(ctx, key)
	c.invalidate(key)
	return err
}

// fill caches value, c.mu must be held.
func (c *CachedStore) fill(key string, value []byte) {
	if err := c.cache.Set([]byte(key), value, c.ttlSeconds); err != nil {
		// too large for the cache, not an error for the caller
		c.cache.Del([]byte(key))
		log.Debugf("kvstore: cache set [%s]: %s", key, err)
	}
}

func (c *CachedStore) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	c.cache.Del([]byte(key))
}

func (c *CachedStore) Close() error {
	c.cache.Clear()
	return c.inner.Close()
}

// Watch forwards the inner store changes, if the inner store can be watched.
func (c *CachedStore) Watch(ctx context.Context) (<-chan Change, error) {
	watcher, ok := c.inner.(Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	return watcher.Watch(ctx)
}

// RunInvalidation drops cached values changed by other writers. Blocks until ctx is done.
func (c *CachedStore) RunInvalidation(ctx context.Context) error {
	changes, err := c.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch inner store: %w", err)
	}

	for change := range changes {
		c.invalidate(change.Key)
		if c.onInvalidate != nil {
			c.onInvalidate(change.Key)
		}
	}
	return nil
}

// OnInvalidate registers a callback run for every key dropped by RunInvalidation.
// Must be called before RunInvalidation.
func (c *CachedStore) OnInvalidate(fn func(key string)) {
	c.onInvalidate = fn
}

// HitRate is exposed for logging and metrics.
func (c *CachedStore) HitRate() float64 {
	return c.cache.HitRate()
}

var ErrWatchUnsupported = errors.New("store does not support watching changes")

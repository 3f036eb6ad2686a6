package client

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/cache"
)

// DefaultCacheCapacity bounds the number of cached clients.
const DefaultCacheCapacity = cache.DefaultCapacity

// CachedStore caches lookups of another store for a fixed TTL in a bounded
// LRU. Unknown clients are cached too. Backend errors are never cached.
type CachedStore struct {
	next    authn.ClientStore
	group   singleflight.Group
	entries *cache.LRU[string, *authn.Client]
}

// CacheOption configures a CachedStore.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	capacity int
	now      func() time.Time
}

// WithCacheCapacity limits how many client ids are cached at once.
func WithCacheCapacity(n int) CacheOption {
	return func(o *cacheOptions) { o.capacity = n }
}

// WithCacheClock overrides the time source used for expiry.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(o *cacheOptions) { o.now = now }
}

// NewCachedStore wraps next. A non-positive ttl defaults to one minute and a
// non-positive capacity to DefaultCacheCapacity.
func NewCachedStore(next authn.ClientStore, ttl time.Duration, opts ...CacheOption) *CachedStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	o := cacheOptions{capacity: DefaultCacheCapacity, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &CachedStore{
		next:    next,
		entries: cache.NewLRU[string, *authn.Client](o.capacity, cache.WithTTL(ttl), cache.WithClock(o.now)),
	}
}

// FindClientByID implements authn.ClientStore.
func (s *CachedStore) FindClientByID(ctx context.Context, clientID string) (*authn.Client, error) {
	if c, ok := s.entries.Get(clientID); ok {
		return lookup(c)
	}

	v, err, _ := s.group.Do(clientID, func() (any, error) {
		c, err := s.next.FindClientByID(ctx, clientID)
		if err != nil && !errors.Is(err, authn.ErrClientNotFound) {
			return nil, err
		}
		if err != nil {
			c = nil
		}
		s.entries.Put(clientID, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return lookup(v.(*authn.Client))
}

// Invalidate drops the cached entry of clientID.
func (s *CachedStore) Invalidate(clientID string) {
	s.entries.Remove(clientID)
}

// Len returns the number of cached client ids.
func (s *CachedStore) Len() int {
	return s.entries.Len()
}

// lookup turns a cached value into a caller-owned result. nil is a cached
// miss.
func lookup(c *authn.Client) (*authn.Client, error) {
	if c == nil {
		return nil, authn.ErrClientNotFound
	}
	cp := clone(*c)
	return &cp, nil
}

// Package ttlcache is a keyed read-through cache for rate-limited upstreams.
//
// Entries are never evicted: a value past its TTL stays around as a stale
// fallback for the next time the upstream is down. TTL is supplied per call,
// so one cache serves quotes, weather and account feeds with different
// freshness requirements.
package ttlcache

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// ErrUnavailable is returned when a key has no cached value and the
// upstream fetch failed, so there is nothing at all to show.
var ErrUnavailable = errors.New("no cached or fresh value available")

// FetchFunc loads a value from the upstream data source. It is assumed to be
// slow, fallible and not safe to retry automatically.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	fetchedAt time.Time
}

// Cache is safe for concurrent use by foreground readers and background
// refreshers. Construct once at startup and share by reference.
type Cache struct {
	store  *gocache.Cache
	flight singleflight.Group

	now func() time.Time
}

func New() *Cache {
	return &Cache{
		// Entries carry their own fetchedAt; go-cache only provides the
		// concurrent store, so its expiration machinery is disabled.
		store: gocache.New(gocache.NoExpiration, 0),
		now:   time.Now,
	}
}

// GetOrFetch returns the value for key, fetching it from the upstream when
// there is no live entry. The stale flag is true only when the fetch failed
// and an expired value is returned in its place.
//
// Concurrent callers on the same expired key share a single upstream fetch.
// A caller whose context is cancelled while waiting abandons the flight; the
// fetch itself completes and its result is stored for everyone else.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (any, bool, error) {
	if e, ok := c.get(key); ok && c.now().Sub(e.fetchedAt) <= ttl {
		return e.value, false, nil
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		// The entry is written only after a successful fetch, so an
		// abandoned or failed flight never leaves a partial update.
		c.put(key, value, c.now())

		return value, nil
	})

	select {
	case res := <-ch:
		if res.Err == nil {
			return res.Val, false, nil
		}

		// Upstream failed: fall back to the expired entry when one exists so
		// the caller can render a last-known value with a staleness mark.
		if e, ok := c.get(key); ok {
			return e.value, true, nil
		}

		return nil, false, errors.Join(ErrUnavailable, res.Err)

	case <-ctx.Done():
		if e, ok := c.get(key); ok {
			return e.value, true, nil
		}

		return nil, false, ctx.Err()
	}
}

// Peek returns the cached value for key without triggering a fetch.
func (c *Cache) Peek(key string, ttl time.Duration) (any, bool, bool) {
	e, ok := c.get(key)
	if !ok {
		return nil, false, false
	}

	return e.value, c.now().Sub(e.fetchedAt) > ttl, true
}

// Len reports the number of cached entries, stale ones included.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

func (c *Cache) get(key string) (*entry, bool) {
	raw, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}

	return raw.(*entry), true
}

func (c *Cache) put(key string, value any, fetchedAt time.Time) {
	c.store.SetDefault(key, &entry{value: value, fetchedAt: fetchedAt})
}

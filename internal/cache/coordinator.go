package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"auction-platform/internal/domain"
	"auction-platform/pkg/logger"
)

// FetchFunc is the underlying data call a read goes through on a miss.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Result is the outcome of a read-through Get.
type Result struct {
	Value     interface{}
	FromCache bool
	// Stale marks a value served from an expired entry because the fetch
	// failed and stale-serving is enabled.
	Stale bool
}

type entry struct {
	value     interface{}
	fetchedAt time.Time
	ttl       time.Duration
	tags      map[string]struct{}
}

func (e *entry) fresh(now time.Time) bool {
	return now.Sub(e.fetchedAt) < e.ttl
}

// call tracks one in-flight fetch so that overlapping callers for the same key
// wait for the first result instead of issuing duplicates.
type call struct {
	done  chan struct{}
	value interface{}
	err   error
}

// Coordinator is a keyed read-through cache with tag invalidation and
// single-flight fetch deduplication.
type Coordinator struct {
	clock      clockwork.Clock
	serveStale bool
	log        logger.Logger

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*call
}

type Option func(*Coordinator)

// WithStaleServing makes Get fall back to an expired entry when the fetch
// fails, instead of propagating the error.
func WithStaleServing() Option {
	return func(c *Coordinator) {
		c.serveStale = true
	}
}

func NewCoordinator(clock clockwork.Clock, log logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		clock:    clock,
		log:      log,
		entries:  make(map[string]*entry),
		inflight: make(map[string]*call),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key when it is fresh, otherwise fetches,
// stores the result under the given tags and ttl, and returns it. Concurrent
// callers for the same key share one fetch.
func (c *Coordinator) Get(ctx context.Context, key string, ttl time.Duration, tags []string, fetch FetchFunc) (Result, error) {
	c.mu.Lock()

	if e, ok := c.entries[key]; ok && e.fresh(c.clock.Now()) {
		c.mu.Unlock()
		return Result{Value: e.value, FromCache: true}, nil
	}

	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		if cl.err != nil {
			return c.resolveFailure(key, cl.err)
		}
		return Result{Value: cl.value, FromCache: false}, nil
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	value, err := fetch(ctx)

	c.mu.Lock()
	cl.value, cl.err = value, err
	if err == nil {
		c.entries[key] = &entry{
			value:     value,
			fetchedAt: c.clock.Now(),
			ttl:       ttl,
			tags:      tagSet(tags),
		}
	}
	delete(c.inflight, key)
	c.mu.Unlock()
	close(cl.done)

	if err != nil {
		return c.resolveFailure(key, err)
	}
	return Result{Value: value, FromCache: false}, nil
}

// resolveFailure applies the stale-serving policy after a failed fetch.
func (c *Coordinator) resolveFailure(key string, fetchErr error) (Result, error) {
	if c.serveStale {
		c.mu.Lock()
		e, ok := c.entries[key]
		c.mu.Unlock()
		if ok {
			c.log.Warn("Serving stale cache entry after fetch failure",
				"key", key, "error", fetchErr)
			return Result{Value: e.value, FromCache: true, Stale: true}, nil
		}
	}
	return Result{}, fmt.Errorf("%w: %s: %v", domain.ErrFetchFailed, key, fetchErr)
}

// Invalidate removes every entry whose tag set contains tag, regardless of
// remaining TTL, and returns how many were dropped.
func (c *Coordinator) Invalidate(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if _, ok := e.tags[tag]; ok {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.log.Debug("Invalidated cache entries", "tag", tag, "count", removed)
	}
	return removed
}

// InvalidateAll drops every entry.
func (c *Coordinator) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Len reports the number of stored entries, fresh or expired.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

// Package cache memoizes read requests per (resource, session). Entries live
// in a go-cache store; concurrent fetches of one key share a single flight.
//
// A session change needs no flush: the session id is part of every key, so
// entries of a previous session are never looked up again and age out through
// the store's expiration.
package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
)

const module = "cache"

// Status is the state of a cache entry as seen by a caller.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// SessionSource reports the active session.
type SessionSource interface {
	Current() (string, bool)
}

// entry is immutable once stored; every settle replaces it.
type entry struct {
	status    Status
	data      any
	hasData   bool
	err       error
	settledAt time.Time
	dataAt    time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	sessions SessionSource
	log      logger.ILogger
	now      func() time.Time
	entries  *gocache.Cache
	flights  singleflight.Group

	mu       sync.Mutex
	inflight map[string]int
}

type Option func(*options)

type options struct {
	now       func() time.Time
	retention time.Duration
	cleanup   time.Duration
}

// WithClock replaces time.Now for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRetention sets how long an entry is kept after its last write and how
// often expired entries are swept.
func WithRetention(retention, cleanup time.Duration) Option {
	return func(o *options) {
		o.retention = retention
		o.cleanup = cleanup
	}
}

func New(sessions SessionSource, log logger.ILogger, opts ...Option) *Cache {
	o := options{
		now:       time.Now,
		retention: 5 * time.Minute,
		cleanup:   10 * time.Minute,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache{
		sessions: sessions,
		log:      log,
		now:      o.now,
		entries:  gocache.New(o.retention, o.cleanup),
		inflight: make(map[string]int),
	}
}

func key(resource, sessionID string) string {
	return resource + "\x00" + sessionID
}

func (c *Cache) lookup(k string) (*entry, bool) {
	v, found := c.entries.Get(k)
	if !found {
		return nil, false
	}
	return v.(*entry), true
}

func (c *Cache) fetching(k string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[k] > 0
}

func (c *Cache) begin(k string) {
	c.mu.Lock()
	c.inflight[k]++
	c.mu.Unlock()
}

func (c *Cache) end(k string) {
	c.mu.Lock()
	if c.inflight[k]--; c.inflight[k] <= 0 {
		delete(c.inflight, k)
	}
	c.mu.Unlock()
}

// flightResult is what a shared flight hands to every waiter.
type flightResult struct {
	entry     *entry
	discarded bool
}

// execute runs fetch for (k, sessionID) and stores the outcome unless the
// session changed while the request was in flight.
func (c *Cache) execute(ctx context.Context, k, resource, sessionID string, fetch func(context.Context, string) (any, error)) flightResult {
	c.begin(k)
	defer c.end(k)

	data, err := fetch(ctx, sessionID)
	now := c.now()

	next := &entry{settledAt: now}
	if err != nil {
		next.status = StatusError
		next.err = err
		if prev, ok := c.lookup(k); ok && prev.hasData {
			next.data, next.hasData, next.dataAt = prev.data, true, prev.dataAt
		}
	} else {
		next.status = StatusSuccess
		next.data, next.hasData, next.dataAt = data, true, now
	}

	if current, ok := c.sessions.Current(); !ok || current != sessionID {
		c.log.Debug(module, "discarding result for a session that is no longer active", map[string]interface{}{
			"resource": resource,
		})
		return flightResult{entry: next, discarded: true}
	}

	c.entries.SetDefault(k, next)
	if err != nil {
		c.log.Warn(module, "fetch failed", map[string]interface{}{"resource": resource, "error": err})
	}
	return flightResult{entry: next}
}

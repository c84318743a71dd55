package cache

import (
	"context"
	"time"
)

// Query describes one cacheable resource.
type Query[T any] struct {
	// Name identifies the resource; combined with the session id it forms the key.
	Name string
	// StaleTime is the freshness window. Zero means every read revalidates.
	StaleTime time.Duration
	// Fetch loads the resource for sessionID, normally through the authorized
	// HTTP client.
	Fetch func(ctx context.Context, sessionID string) (T, error)
}

// Result is the caller's view of a query.
type Result[T any] struct {
	Status    Status
	Data      T
	Err       error
	FetchedAt time.Time
	// Stale is set when Data is older than the freshness window.
	Stale bool
	// Fetching is set while a request for this key is in flight.
	Fetching bool
}

// HasData reports whether Data holds a fetched value.
func (r Result[T]) HasData() bool {
	return !r.FetchedAt.IsZero()
}

// Fetch returns the cached entry when fresh. A stale entry that holds data is
// returned immediately while one background request revalidates it. Without
// any usable entry Fetch waits for the (shared) request. Without a session
// nothing is sent and the result is idle.
func Fetch[T any](ctx context.Context, c *Cache, q Query[T]) Result[T] {
	sessionID, ok := c.sessions.Current()
	if !ok {
		return Result[T]{Status: StatusIdle}
	}
	k := key(q.Name, sessionID)

	if e, found := c.lookup(k); found {
		fresh := c.now().Sub(e.settledAt) < q.StaleTime
		switch {
		case fresh:
			return toResult[T](e, false, c.fetching(k))
		case e.hasData:
			revalidate(ctx, c, k, sessionID, q)
			return toResult[T](e, true, true)
		}
	}

	return run(ctx, c, k, sessionID, q)
}

// Refresh always re-executes the fetcher (sharing any flight already running
// for the key) and waits for it.
func Refresh[T any](ctx context.Context, c *Cache, q Query[T]) Result[T] {
	sessionID, ok := c.sessions.Current()
	if !ok {
		return Result[T]{Status: StatusIdle}
	}
	return run(ctx, c, key(q.Name, sessionID), sessionID, q)
}

// Peek reports the entry for resource under the active session without
// starting a request.
func Peek[T any](c *Cache, resource string, staleTime time.Duration) Result[T] {
	sessionID, ok := c.sessions.Current()
	if !ok {
		return Result[T]{Status: StatusIdle}
	}
	k := key(resource, sessionID)
	fetching := c.fetching(k)

	e, found := c.lookup(k)
	if !found {
		if fetching {
			return Result[T]{Status: StatusLoading, Fetching: true}
		}
		return Result[T]{Status: StatusIdle}
	}
	return toResult[T](e, c.now().Sub(e.settledAt) >= staleTime, fetching)
}

func run[T any](ctx context.Context, c *Cache, k, sessionID string, q Query[T]) Result[T] {
	// In-flight requests outlive the caller that started them.
	detached := context.WithoutCancel(ctx)

	v, _, _ := c.flights.Do(k, func() (any, error) {
		return c.execute(detached, k, q.Name, sessionID, erase(q.Fetch)), nil
	})
	fr := v.(flightResult)

	if fr.discarded {
		if fr.entry.status == StatusError {
			return Result[T]{Status: StatusError, Err: fr.entry.err}
		}
		return Result[T]{Status: StatusIdle}
	}
	return toResult[T](fr.entry, false, false)
}

// revalidate refreshes k in the background. Concurrent calls join the same
// flight, so a burst of stale reads still sends one request.
func revalidate[T any](ctx context.Context, c *Cache, k, sessionID string, q Query[T]) {
	detached := context.WithoutCancel(ctx)
	c.flights.DoChan(k, func() (any, error) {
		return c.execute(detached, k, q.Name, sessionID, erase(q.Fetch)), nil
	})
}

func erase[T any](fetch func(context.Context, string) (T, error)) func(context.Context, string) (any, error) {
	return func(ctx context.Context, sessionID string) (any, error) {
		return fetch(ctx, sessionID)
	}
}

func toResult[T any](e *entry, stale, fetching bool) Result[T] {
	r := Result[T]{
		Status:   e.status,
		Err:      e.err,
		Stale:    stale,
		Fetching: fetching,
	}
	if e.hasData {
		r.Data, _ = e.data.(T)
		r.FetchedAt = e.dataAt
	}
	return r
}

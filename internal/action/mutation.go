// Package action runs uncached request/response actions and tracks the state
// of the latest invocation.
package action

import (
	"context"
	"sync"
	"time"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Snapshot is one observed state of a Mutation.
type Snapshot[Out any] struct {
	Status Status
	Result Out
	Err    error
	// Invocation numbers submissions from 1; zero means nothing was submitted.
	Invocation uint64
	At         time.Time
}

// Mutation wraps an action. Every Submit is an independent invocation: there
// is no de-duplication and overlapping submissions each reach exactly one
// terminal state. State reports the most recently started invocation.
type Mutation[In, Out any] struct {
	run func(ctx context.Context, in In) (Out, error)

	mu        sync.Mutex
	latest    Snapshot[Out]
	seq       uint64
	observers []func(Snapshot[Out])
}

func NewMutation[In, Out any](run func(ctx context.Context, in In) (Out, error)) *Mutation[In, Out] {
	return &Mutation[In, Out]{
		run:    run,
		latest: Snapshot[Out]{Status: StatusIdle},
	}
}

// Submit transitions to pending, runs the action and transitions to success or
// error. The result and the error are also returned to the caller.
func (m *Mutation[In, Out]) Submit(ctx context.Context, in In) (Out, error) {
	m.mu.Lock()
	m.seq++
	invocation := m.seq
	m.mu.Unlock()

	m.publish(Snapshot[Out]{Status: StatusPending, Invocation: invocation, At: time.Now()})

	out, err := m.run(ctx, in)

	done := Snapshot[Out]{Status: StatusSuccess, Result: out, Invocation: invocation, At: time.Now()}
	if err != nil {
		var zero Out
		done = Snapshot[Out]{Status: StatusError, Result: zero, Err: err, Invocation: invocation, At: time.Now()}
	}
	m.publish(done)
	return done.Result, err
}

// State returns the state of the latest invocation.
func (m *Mutation[In, Out]) State() Snapshot[Out] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest
}

// OnChange registers fn for every transition of every invocation, including
// transitions of invocations that are no longer the latest.
func (m *Mutation[In, Out]) OnChange(fn func(Snapshot[Out])) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// Reset returns the visible state to idle. In-flight invocations still finish
// and notify observers, but only invocations submitted after Reset become
// visible again.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	m.latest = Snapshot[Out]{Status: StatusIdle, Invocation: m.seq, At: time.Now()}
	m.mu.Unlock()
}

func (m *Mutation[In, Out]) publish(s Snapshot[Out]) {
	m.mu.Lock()
	// An older invocation finishing late must not overwrite a newer one, nor
	// the idle state left by Reset.
	if s.Invocation > m.latest.Invocation || (s.Invocation == m.latest.Invocation && m.latest.Status != StatusIdle) {
		m.latest = s
	}
	observers := append([]func(Snapshot[Out]){}, m.observers...)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

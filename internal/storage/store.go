// Package storage holds the durable key/value record that outlives the process,
// the terminal counterpart of a browser's per-origin local storage.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for store operations.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrLoadFailed  = errors.New("load failed")
	ErrSaveFailed  = errors.New("save failed")
)

// Store is a string key/value record scoped to one origin. Implementations are
// safe for concurrent use.
type Store interface {
	// Get returns the value stored under key or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set creates or overwrites key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Missing keys are ignored.
	Delete(ctx context.Context, key string) error
}

const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver   string
	Path     string
	Origin   string
	RedisURL string
}

// New creates the Store named by opts.Driver. An empty driver means file.
func New(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverFile:
		return NewFileStore(opts.Path, opts.Origin), nil
	case DriverRedis:
		return NewRedisStoreFromURL(ctx, opts.RedisURL, opts.Origin)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

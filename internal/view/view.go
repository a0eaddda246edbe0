// Package view guards list and detail views against responses that arrive after a
// newer load of the same view has started.
package view

import (
	"context"
	"errors"
	"sync"
)

// ErrStale is returned for a response superseded by a newer load.
var ErrStale = errors.New("response superseded by a newer load")

// Loader tracks the latest generation of one view and the value it last accepted.
type Loader[T any] struct {
	mu         sync.Mutex
	generation uint64
	current    T
	loaded     bool
}

// Load runs fetch under a fresh generation. The result is kept only if no other Load
// started in the meantime; otherwise ErrStale is returned and the kept value is untouched.
func (l *Loader[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.mu.Unlock()

	value, err := fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		var zero T
		return zero, ErrStale
	}
	if err != nil {
		var zero T
		return zero, err
	}
	l.current = value
	l.loaded = true
	return value, nil
}

// Current returns the last accepted value.
func (l *Loader[T]) Current() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.loaded
}

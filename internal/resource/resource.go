// Package resource holds asynchronously fetched page data with loading and
// error state.
package resource

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrBusy is returned when a write is started while another is outstanding.
var ErrBusy = errors.New("another submission is in progress")

// ErrStale is returned when a fetch finished after being superseded by a
// newer fetch or a Reset. Its result was dropped.
var ErrStale = errors.New("result superseded")

// Snapshot is a consistent copy of a resource's state.
type Snapshot[T any] struct {
	Data    T
	Loaded  bool
	Loading bool
	Busy    bool
	Err     error
}

// Resource tracks one piece of remotely owned data. The zero value is ready
// to use.
type Resource[T any] struct {
	mu      sync.Mutex
	data    T
	loaded  bool
	pending int
	busy    bool
	err     error
	gen     uint64
	// epoch scopes shared fetches; Reset moves to a new one.
	epoch uint64

	flight singleflight.Group
}

// Load runs fetch and replaces the data on success. On failure the error is
// kept and the data left untouched. Concurrent loads with the same key share
// one fetch; key must identify everything the fetch depends on. The shared
// fetch outlives a cancelled caller, who gets its own ctx error instead.
func (r *Resource[T]) Load(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.pending++
	flightKey := strconv.FormatUint(r.epoch, 10) + "/" + key
	r.mu.Unlock()

	ch := r.flight.DoChan(flightKey, func() (any, error) {
		return fetch(context.WithoutCancel(ctx))
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		r.mu.Lock()
		r.pending--
		r.mu.Unlock()
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending--
	if gen != r.gen {
		return ErrStale
	}
	if res.Err != nil {
		r.err = res.Err
		return res.Err
	}
	r.data = res.Val.(T)
	r.loaded = true
	r.err = nil
	return nil
}

// Mutate runs write and, if it succeeds and the resource was not reset in
// the meantime, applies update to the current data. Only one write may be
// outstanding. A failed write is returned and not recorded as the
// resource's error; the data is left untouched.
func (r *Resource[T]) Mutate(ctx context.Context, write func(ctx context.Context) error, update func(T) T) error {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return ErrBusy
	}
	r.busy = true
	gen := r.gen
	r.mu.Unlock()

	err := write(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = false
	if err != nil {
		return err
	}
	if gen != r.gen {
		return ErrStale
	}
	if update != nil {
		r.data = update(r.data)
		r.loaded = true
	}
	r.err = nil
	return nil
}

// Set replaces the data.
func (r *Resource[T]) Set(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = v
	r.loaded = true
	r.err = nil
}

// Update applies fn to the current data.
func (r *Resource[T]) Update(fn func(T) T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = fn(r.data)
	r.loaded = true
}

// Fail records err without touching the data.
func (r *Resource[T]) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Dismiss clears the recorded error.
func (r *Resource[T]) Dismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = nil
}

// Reset drops the data and invalidates every in-flight fetch and write.
func (r *Resource[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	r.gen++
	r.data = zero
	r.loaded = false
	r.err = nil
	r.epoch++
}

func (r *Resource[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot[T]{
		Data:    r.data,
		Loaded:  r.loaded,
		Loading: r.pending > 0,
		Busy:    r.busy,
		Err:     r.err,
	}
}

// Package autosave debounces and deduplicates background persistence of
// in-progress form edits.
//
// Writes for the same key are strictly serialized: before a new write is
// issued the previous one is cancelled and awaited, so an older snapshot can
// never land after a newer one.
package autosave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/portfolio-go-api/internal/observability"
)

// DefaultDelay is the debounce window between the last edit and the write.
const DefaultDelay = 1500 * time.Millisecond

// ErrClosed is returned once the coordinator has been shut down.
var ErrClosed = errors.New("autosave coordinator closed")

// SaveFunc persists data for id. It must honour ctx cancellation.
type SaveFunc[T any] func(ctx context.Context, id uint, data T) error

// Options configures a Coordinator.
type Options[T any] struct {
	Delay   time.Duration
	Save    SaveFunc[T]
	OnError func(id uint, data T, err error)
	OnSaved func(id uint, data T)
	Logger  zerolog.Logger
}

// Coordinator schedules debounced writes per key.
type Coordinator[T any] struct {
	delay   time.Duration
	save    SaveFunc[T]
	onError func(id uint, data T, err error)
	onSaved func(id uint, data T)
	logger  zerolog.Logger

	base   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	entries map[uint]*entry[T]
}

type entry[T any] struct {
	timer      *time.Timer
	pending    *T
	generation uint64
	snapshot   []byte

	inflightCancel context.CancelFunc
	inflightDone   chan struct{}
}

// New constructs a coordinator. Save is required.
func New[T any](opts Options[T]) *Coordinator[T] {
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	base, cancel := context.WithCancel(context.Background())
	return &Coordinator[T]{
		delay:   delay,
		save:    opts.Save,
		onError: opts.OnError,
		onSaved: opts.OnSaved,
		logger:  opts.Logger.With().Str("component", "autosave").Logger(),
		base:    base,
		cancel:  cancel,
		entries: make(map[uint]*entry[T]),
	}
}

// Schedule records data as the latest state for id and restarts its debounce timer.
func (c *Coordinator[T]) Schedule(id uint, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	e := c.entry(id)
	e.pending = &data
	e.generation++
	generation := e.generation

	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(c.delay, func() {
		if err := c.persist(id, generation); err != nil {
			c.report(id, data, err)
		}
	})
}

// Prime seeds the last-persisted snapshot so an unchanged first edit is skipped.
func (c *Coordinator[T]) Prime(id uint, data T) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	e := c.entry(id)
	if e.snapshot == nil {
		e.snapshot = payload
	}
}

// Pending reports whether id has edits waiting for the debounce timer.
func (c *Coordinator[T]) Pending(id uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return ok && e.pending != nil
}

// Flush writes pending data for id immediately and returns the write result.
// Without pending data it waits for an in-flight write to settle.
func (c *Coordinator[T]) Flush(ctx context.Context, id uint) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	e, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	if e.pending == nil {
		done := e.inflightDone
		c.mu.Unlock()
		return wait(ctx, done)
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.generation++
	generation := e.generation
	c.mu.Unlock()

	return c.persist(id, generation)
}

// Discard drops pending edits for id and aborts any in-flight write.
func (c *Coordinator[T]) Discard(ctx context.Context, id uint) error {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.pending = nil
	e.generation++
	if e.inflightCancel != nil {
		e.inflightCancel()
	}
	done := e.inflightDone
	c.mu.Unlock()

	return wait(ctx, done)
}

// Forget discards id and removes all bookkeeping for it.
func (c *Coordinator[T]) Forget(ctx context.Context, id uint) error {
	err := c.Discard(ctx, id)
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
	return err
}

// Close stops all timers and aborts in-flight writes. Results arriving
// afterwards are dropped.
func (c *Coordinator[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, e := range c.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		e.pending = nil
	}
	c.cancel()
}

func (c *Coordinator[T]) entry(id uint) *entry[T] {
	e, ok := c.entries[id]
	if !ok {
		e = &entry[T]{}
		c.entries[id] = e
	}
	return e
}

// persist performs the write for generation if it is still the latest one.
func (c *Coordinator[T]) persist(id uint, generation uint64) error {
	c.mu.Lock()
	e, ok := c.entries[id]
	if c.closed || !ok || e.generation != generation || e.pending == nil {
		c.mu.Unlock()
		return nil
	}

	data := *e.pending
	e.pending = nil

	payload, err := json.Marshal(data)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("serialize draft: %w", err)
	}

	if bytes.Equal(payload, e.snapshot) {
		c.mu.Unlock()
		observability.AutosaveSkipped().Inc()
		c.logger.Debug().Uint("assignment_id", id).Msg("autosave skipped, no changes")
		return nil
	}

	previousCancel, previousDone := e.inflightCancel, e.inflightDone
	ctx, cancel := context.WithCancel(c.base)
	done := make(chan struct{})
	e.inflightCancel, e.inflightDone = cancel, done
	c.mu.Unlock()

	if previousCancel != nil {
		previousCancel()
		<-previousDone
	}

	var saveErr error
	if ctx.Err() != nil {
		saveErr = ctx.Err()
	} else {
		saveErr = c.save(ctx, id, data)
	}
	superseded := ctx.Err() != nil
	cancel()

	c.mu.Lock()
	if e.inflightDone == done {
		e.inflightCancel, e.inflightDone = nil, nil
	}
	closed := c.closed
	dropped := superseded && errors.Is(saveErr, context.Canceled)
	switch {
	case closed:
	case saveErr == nil:
		e.snapshot = payload
	case !dropped && c.entries[id] == e && e.generation == generation && e.pending == nil:
		// keep the failed edit so a later Flush retries it
		e.pending = &data
	}
	c.mu.Unlock()
	close(done)

	switch {
	case closed:
		return nil
	case saveErr == nil:
		observability.AutosaveWrites().WithLabelValues("success").Inc()
		if c.onSaved != nil {
			c.onSaved(id, data)
		}
		return nil
	case dropped:
		observability.AutosaveWrites().WithLabelValues("superseded").Inc()
		c.logger.Debug().Uint("assignment_id", id).Msg("autosave superseded by newer edit")
		return nil
	default:
		observability.AutosaveWrites().WithLabelValues("error").Inc()
		return saveErr
	}
}

func (c *Coordinator[T]) report(id uint, data T, err error) {
	c.logger.Warn().Err(err).Uint("assignment_id", id).Msg("autosave failed")
	if c.onError != nil {
		c.onError(id, data, err)
	}
}

func wait(ctx context.Context, done <-chan struct{}) error {
	if done == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package fstream

import "context"

// HistoryReader is a full-fidelity view over a StreamCore: every item the
// upstream ever produces is observed exactly once, in order, up to
// DefaultMaxBuffer items of back-pressure.
type HistoryReader[T any] struct {
	core   *StreamCore[T]
	id     int
	closed bool
}

func newHistoryReader[T any](core *StreamCore[T]) *HistoryReader[T] {
	return &HistoryReader[T]{core: core, id: core.AllocateHistoryReader()}
}

// Poll returns the next item if one is buffered, draining the upstream as
// needed; it never blocks.
func (r *HistoryReader[T]) Poll() (PollStatus, T, error) {
	return r.core.PollHistory(r.id)
}

// Next blocks until an item, end-of-stream, an upstream error, or ctx
// cancellation.
func (r *HistoryReader[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		status, v, err := r.Poll()
		switch status {
		case Ready:
			return v, true, nil
		case Done:
			var zero T
			return zero, false, nil
		case Error:
			var zero T
			return zero, false, err
		default: // Pending
			wake := r.core.historyWakeChan(r.id)
			if wake == nil {
				var zero T
				return zero, false, ErrReaderClosed
			}
			select {
			case <-wake:
			case <-ctx.Done():
				var zero T
				return zero, false, ctx.Err()
			}
		}
	}
}

// Close deallocates the reader, freeing its buffer. Safe to call more than
// once.
func (r *HistoryReader[T]) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.core.DeallocateHistory(r.id)
}

// StateReader is a latest-value-only view over a StreamCore: it observes a
// monotonic subsequence of the upstream sequence, possibly skipping
// intermediate values if it polls slower than they arrive.
type StateReader[T any] struct {
	core   *StreamCore[T]
	id     int
	closed bool
}

func newStateReader[T any](core *StreamCore[T]) *StateReader[T] {
	return &StateReader[T]{core: core, id: core.AllocateStateReader()}
}

// Poll returns the current value if one hasn't yet been observed by this
// reader, draining the upstream as needed; it never blocks.
func (r *StateReader[T]) Poll() (PollStatus, T, error) {
	return r.core.PollState(r.id)
}

// Next blocks until a (possibly-coalesced) value, end-of-stream, an upstream
// error, or ctx cancellation.
func (r *StateReader[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		status, v, err := r.Poll()
		switch status {
		case Ready:
			return v, true, nil
		case Done:
			var zero T
			return zero, false, nil
		case Error:
			var zero T
			return zero, false, err
		default: // Pending
			wake := r.core.stateWakeChan(r.id)
			if wake == nil {
				var zero T
				return zero, false, ErrReaderClosed
			}
			select {
			case <-wake:
			case <-ctx.Done():
				var zero T
				return zero, false, ctx.Err()
			}
		}
	}
}

// Close deallocates the reader.
func (r *StateReader[T]) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.core.DeallocateState(r.id)
}

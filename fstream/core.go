package fstream

import "sync"

// DefaultMaxBuffer is the default per-reader history buffer cap.
const DefaultMaxBuffer = 256

type historySlot[T any] struct {
	buffer       []T
	errDelivered bool
	wake         chan struct{}
}

type stateSlot[T any] struct {
	current      T
	hasCurrent   bool
	errDelivered bool
	wake         chan struct{}
}

func newWakeChan() chan struct{} {
	return make(chan struct{}, 1)
}

// StreamCore buffers items from one upstream source and multiplexes them to
// N history readers and M state readers. See HistoryReader and StateReader
// for the two reading disciplines.
//
// A StreamCore's zero value is not usable; construct with NewCore.
type StreamCore[T any] struct {
	mu       sync.Mutex
	notifier *Notifier

	maxBuffer int

	source      Upstream[T]
	lastValue   T
	hasLast     bool
	finished    bool
	upstreamErr error

	nextReaderID int
	history      map[int]*historySlot[T]
	state        map[int]*stateSlot[T]
}

// NewCore constructs a StreamCore with no attached source and the default
// buffer size. Wake-ups are dispatched through notifier.
func NewCore[T any](notifier *Notifier) *StreamCore[T] {
	return &StreamCore[T]{
		notifier:  notifier,
		maxBuffer: DefaultMaxBuffer,
		history:   map[int]*historySlot[T]{},
		state:     map[int]*stateSlot[T]{},
	}
}

// SetMaxBuffer overrides the per-reader history buffer cap. Must be called
// before any reader is allocated.
func (c *StreamCore[T]) SetMaxBuffer(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxBuffer = n
}

// Attach replaces the upstream source, clears finished/error state, and
// wakes every current reader so they re-poll against the new source.
func (c *StreamCore[T]) Attach(source Upstream[T]) {
	c.mu.Lock()
	c.source = source
	c.finished = false
	c.upstreamErr = nil
	for _, s := range c.history {
		s.errDelivered = false
	}
	for _, s := range c.state {
		s.errDelivered = false
	}
	wakes := c.allWakesLocked()
	c.mu.Unlock()

	c.notifier.notify(wakes)
}

func (c *StreamCore[T]) allWakesLocked() []chan struct{} {
	wakes := make([]chan struct{}, 0, len(c.history)+len(c.state))
	for _, s := range c.history {
		wakes = append(wakes, s.wake)
	}
	for _, s := range c.state {
		wakes = append(wakes, s.wake)
	}
	return wakes
}

// AllocateHistoryReader assigns a new reader id, seeding its buffer with a
// copy of the fullest existing history reader's buffer (so late joiners see
// the same recent-history prefix as readers that joined earlier), and
// returns the id.
func (c *StreamCore[T]) AllocateHistoryReader() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextReaderID
	c.nextReaderID++

	var seed []T
	for _, s := range c.history {
		if len(s.buffer) > len(seed) {
			seed = append([]T(nil), s.buffer...)
		}
	}

	c.history[id] = &historySlot[T]{buffer: seed, wake: newWakeChan()}
	return id
}

// AllocateStateReader assigns a new reader id, initialising its current
// value from the core's last observed value if any, and returns the id.
func (c *StreamCore[T]) AllocateStateReader() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextReaderID
	c.nextReaderID++

	slot := &stateSlot[T]{wake: newWakeChan()}
	if c.hasLast {
		slot.current = c.lastValue
		slot.hasCurrent = true
	}
	c.state[id] = slot
	return id
}

// DeallocateHistory removes a history reader, freeing its buffer.
func (c *StreamCore[T]) DeallocateHistory(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.history, id)
}

// DeallocateState removes a state reader.
func (c *StreamCore[T]) DeallocateState(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, id)
}

// drainLocked pulls items from the upstream source into every history
// reader's buffer until back-pressure stops it (the largest buffer hits
// maxBuffer), the upstream is Pending, or the upstream finishes or errors.
// Must be called with c.mu held. Returns whether any item was drained.
func (c *StreamCore[T]) drainLocked() bool {
	if c.finished || c.upstreamErr != nil || c.source == nil {
		return false
	}

	drained := false
	for {
		maxLen := 0
		for _, s := range c.history {
			if len(s.buffer) > maxLen {
				maxLen = len(s.buffer)
			}
		}
		if maxLen >= c.maxBuffer {
			return drained
		}

		status, val, err := c.source.Poll()
		switch status {
		case Pending:
			return drained
		case Done:
			c.finished = true
			return drained
		case Error:
			c.upstreamErr = err
			return drained
		case Ready:
			for _, s := range c.history {
				s.buffer = append(s.buffer, val)
			}
			c.lastValue = val
			c.hasLast = true
			drained = true
		}
	}
}

// historyWakeChan returns the wake channel for a history reader, or nil if
// it's not currently allocated.
func (c *StreamCore[T]) historyWakeChan(id int) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.history[id]; ok {
		return s.wake
	}
	return nil
}

// stateWakeChan returns the wake channel for a state reader, or nil if it's
// not currently allocated.
func (c *StreamCore[T]) stateWakeChan(id int) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.state[id]; ok {
		return s.wake
	}
	return nil
}

// PollHistory implements the poll_history algorithm: return a buffered item
// if one is waiting, otherwise drain the upstream and retry, otherwise
// report Done/Error/Pending.
func (c *StreamCore[T]) PollHistory(id int) (PollStatus, T, error) {
	c.mu.Lock()

	slot, ok := c.history[id]
	if !ok {
		c.mu.Unlock()
		var zero T
		return Error, zero, ErrReaderClosed
	}

	if v, ok := popFront(&slot.buffer); ok {
		c.mu.Unlock()
		return Ready, v, nil
	}

	hadFinished, hadErr := c.finished, c.upstreamErr != nil
	drained := c.drainLocked()
	newTerminal := (!hadFinished && c.finished) || (!hadErr && c.upstreamErr != nil)

	var wakes []chan struct{}
	if drained {
		for _, s := range c.state {
			s.current = c.lastValue
			s.hasCurrent = true
		}
	}
	if drained || newTerminal {
		for rid, s := range c.history {
			if rid != id {
				wakes = append(wakes, s.wake)
			}
		}
		for _, s := range c.state {
			wakes = append(wakes, s.wake)
		}
	}

	status, v, err := c.resolveAfterDrainLocked(slot)
	c.mu.Unlock()
	c.notifier.notify(wakes)
	return status, v, err
}

// resolveAfterDrainLocked resolves slot's status once its buffer is known
// empty and the upstream has been drained as far as it will go. Error
// delivery is tracked on slot, not on the core: each reader id observes the
// upstream error exactly once, then Done on every later poll, regardless of
// whether other reader ids have observed it yet.
func (c *StreamCore[T]) resolveAfterDrainLocked(slot *historySlot[T]) (PollStatus, T, error) {
	var zero T
	if v, ok := popFront(&slot.buffer); ok {
		return Ready, v, nil
	}
	if c.finished {
		return Done, zero, nil
	}
	if c.upstreamErr != nil {
		if !slot.errDelivered {
			slot.errDelivered = true
			return Error, zero, c.upstreamErr
		}
		return Done, zero, nil
	}
	return Pending, zero, nil
}

// PollState implements the poll_state algorithm: take the current value if
// one is waiting, otherwise drain the upstream and retry, otherwise report
// Done/Error/Pending.
func (c *StreamCore[T]) PollState(id int) (PollStatus, T, error) {
	c.mu.Lock()

	slot, ok := c.state[id]
	if !ok {
		c.mu.Unlock()
		var zero T
		return Error, zero, ErrReaderClosed
	}

	if slot.hasCurrent {
		v := slot.current
		slot.hasCurrent = false
		c.mu.Unlock()
		return Ready, v, nil
	}

	if c.finished {
		c.mu.Unlock()
		var zero T
		return Done, zero, nil
	}

	hadErr := c.upstreamErr != nil
	drained := c.drainLocked()
	newTerminal := c.finished || (!hadErr && c.upstreamErr != nil)

	var wakes []chan struct{}
	if drained {
		for _, s := range c.state {
			s.current = c.lastValue
			s.hasCurrent = true
		}
	}
	if drained || newTerminal {
		for rid, s := range c.state {
			if rid != id {
				wakes = append(wakes, s.wake)
			}
		}
		for _, s := range c.history {
			wakes = append(wakes, s.wake)
		}
	}

	var status PollStatus
	var v T
	var err error
	switch {
	case slot.hasCurrent:
		v = slot.current
		slot.hasCurrent = false
		status = Ready
	case c.finished:
		status = Done
	case c.upstreamErr != nil:
		if !slot.errDelivered {
			slot.errDelivered = true
			err = c.upstreamErr
			status = Error
		} else {
			status = Done
		}
	default:
		status = Pending
	}

	c.mu.Unlock()
	c.notifier.notify(wakes)
	return status, v, err
}

func popFront[T any](buf *[]T) (T, bool) {
	var zero T
	if len(*buf) == 0 {
		return zero, false
	}
	v := (*buf)[0]
	*buf = (*buf)[1:]
	return v, true
}

package fstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotifier(t *testing.T) *Notifier {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewNotifier(ctx)
}

// S1: history fan-out.
func TestHistoryFanOut(t *testing.T) {
	src := NewInputSource[int](testNotifier(t))
	r1 := src.ReadHistory()
	r2 := src.ReadHistory()
	src.Attach(FromSlice([]int{1, 2, 3}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, r := range []*HistoryReader[int]{r1, r2} {
		for _, want := range []int{1, 2, 3} {
			v, ok, err := r.Next(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, v)
		}
		_, ok, err := r.Next(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

// S2: state latest.
func TestStateLatest(t *testing.T) {
	src := NewInputSource[int](testNotifier(t))
	s := src.ReadState()
	src.Attach(FromSlice([]int{1, 2, 3}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, ok, err := s.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok, err = s.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Invariant 4: number of values a state reader observes is <= n, and the
// last one before end-of-stream is always xn, even if the reader polls
// slowly (we poll after every item has already been drained).
func TestStateReaderCanSkipIntermediateValues(t *testing.T) {
	src := NewInputSource[int](testNotifier(t))
	hist := src.ReadHistory() // forces full draining, since history has no cap hit here
	s := src.ReadState()
	src.Attach(FromSlice([]int{1, 2, 3, 4, 5}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Drain history fully first so the upstream is fully consumed before the
	// state reader ever polls.
	for i := 0; i < 5; i++ {
		_, ok, err := hist.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	}

	v, ok, err := s.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

// Invariant 5: back-pressure. A history reader that never polls halts
// upstream draining once max_buffer items have accumulated.
func TestBackPressure(t *testing.T) {
	src := NewInputSource[int](testNotifier(t))
	src.core.SetMaxBuffer(3)
	slow := src.ReadHistory()
	fast := src.ReadHistory()

	src.Attach(FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// fast polls repeatedly but can never pull more than 3 ahead of slow,
	// since drainLocked halts once the largest buffer (slow's) hits 3.
	for i := 0; i < 3; i++ {
		v, ok, err := fast.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i+1, v)
	}

	status, _, _ := fast.Poll()
	assert.Equal(t, Pending, status)

	status, _, _ = slow.Poll()
	assert.Equal(t, Ready, status)
}

// Invariant 6: late-joiner continuity.
func TestLateJoinerInheritsFullestBuffer(t *testing.T) {
	src := NewInputSource[int](testNotifier(t))
	first := src.ReadHistory()
	src.Attach(FromSlice([]int{1, 2, 3}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Force a drain by polling first, buffering all 3 into first's slot
	// (and into late's, once it's allocated -- but late joins after).
	v, ok, err := first.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	late := src.ReadHistory()
	v, ok, err = late.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	// late was seeded from first's buffer at allocation time, which still
	// held [2, 3] (first had already consumed 1).
	assert.Equal(t, 2, v)
}

func TestAttachRestartsFinishedCore(t *testing.T) {
	src := NewInputSource[int](testNotifier(t))
	r := src.ReadHistory()
	src.Attach(FromSlice([]int{1}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, ok, err := r.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok, err = r.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	src.Attach(FromSlice([]int{2}))
	v, ok, err = r.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

// Each reader id must observe the upstream error exactly once, independent
// of whether other reader ids have already observed (or not yet polled
// past) it: one reader erroring must not turn every other reader's error
// into silent, permanent Pending.
func TestUpstreamErrorDeliveredOncePerReader(t *testing.T) {
	src := NewInputSource[int](testNotifier(t))
	r1 := src.ReadHistory()
	r2 := src.ReadHistory()

	valsCh := make(chan int, 1)
	errCh := make(chan error, 1)
	boom := assert.AnError
	errCh <- boom
	src.Attach(FromChannel[int](valsCh, errCh))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// r1 drains and observes the error first.
	_, ok, err := r1.Next(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	// r2 must also observe the error (not be stuck Pending forever just
	// because r1 already consumed it), via a wake-up triggered by r1's poll.
	_, ok, err = r2.Next(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	// Both reader ids report Done, not Pending, on every later poll.
	status, _, err := r1.Poll()
	assert.Equal(t, Done, status)
	assert.NoError(t, err)

	status, _, err = r2.Poll()
	assert.Equal(t, Done, status)
	assert.NoError(t, err)
}

func TestDeallocatedReaderErrors(t *testing.T) {
	src := NewInputSource[int](testNotifier(t))
	r := src.ReadHistory()
	r.Close()

	status, _, err := r.Poll()
	assert.Equal(t, Error, status)
	assert.ErrorIs(t, err, ErrReaderClosed)
}

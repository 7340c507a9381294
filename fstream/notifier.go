package fstream

import (
	"context"

	"github.com/mediocregopher/florun/mrun"
)

// Notifier invokes reader wake-up channels outside of a StreamCore's lock.
// poll_history/poll_state collect the set of wakers to fire while holding
// the core's mutex, then hand them to a Notifier after releasing it; this
// avoids a woken reader re-entering the same mutex from the goroutine that
// woke it.
//
// A Notifier is backed by a single background goroutine (via mrun.Go) so
// that wake dispatch for one core is itself serialised, matching the
// "second, independent serialiser" the core's own locking requires.
type Notifier struct {
	queue chan []chan struct{}
}

// NewNotifier starts a Notifier whose background goroutine runs until ctx is
// Done.
func NewNotifier(ctx context.Context) *Notifier {
	n := &Notifier{queue: make(chan []chan struct{}, 256)}
	mrun.Go(ctx, func(ctx context.Context) error {
		for {
			select {
			case chans := <-n.queue:
				fire(chans)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	return n
}

func fire(chans []chan struct{}) {
	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// notify schedules chans to be woken. If the background goroutine's queue is
// full, wakes are dispatched immediately from the caller rather than
// dropped; a full queue means wake-ups are already backed up, not that
// dispatch should be skipped.
func (n *Notifier) notify(chans []chan struct{}) {
	if len(chans) == 0 {
		return
	}
	select {
	case n.queue <- chans:
	default:
		fire(chans)
	}
}

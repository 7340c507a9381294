// Package fredis adapts a Redis list into an fstream.Upstream[T]: a
// background read loop issues blocking BLPOP calls against a configured key
// and JSON-decodes each popped value into T, feeding it to a channel that a
// non-blocking fstream.Upstream polls -- the same "background goroutine
// feeds a channel, Upstream.Poll drains it without blocking" shape as
// fhost.Host's update feed.
package fredis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mdb/mredis"
	"github.com/mediocregopher/florun/mlog"
	"github.com/mediocregopher/florun/mrun"
	"github.com/mediocregopher/radix/v3"

	"github.com/mediocregopher/florun/fstream"
)

// DefaultBlock is how long each BLPOP call waits for an item before
// retrying, giving the read loop a chance to notice ctx cancellation.
const DefaultBlock = 5 * time.Second

const chanBuffer = 64

// Opts configures NewUpstream. The zero value is valid and uses DefaultBlock.
type Opts struct {
	// Block is the BLPOP timeout used by the read loop. Rounded up to the
	// nearest whole second, since BLPOP's timeout argument is in seconds.
	Block time.Duration
}

func (o Opts) blockSeconds() int {
	block := o.Block
	if block == 0 {
		block = DefaultBlock
	}
	secs := int((block + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// NewUpstream registers a read loop (via mrun.Go, parented on cmp's
// context) which BLPOPs key on client and JSON-decodes each value into T,
// and returns an fstream.Upstream[T] fed by that loop. The loop runs until
// cmp's context is canceled.
func NewUpstream[T any](cmp *mcmp.Component, client *mredis.Redis, key string, opts Opts) fstream.Upstream[T] {
	valCh := make(chan T, chanBuffer)
	errCh := make(chan error, 1)

	mrun.Go(cmp.Context(), func(ctx context.Context) error {
		readLoop[T](ctx, cmp, client, key, opts, valCh, errCh)
		return nil
	})

	return fstream.FromChannel[T](valCh, errCh)
}

func readLoop[T any](
	ctx context.Context,
	cmp *mcmp.Component,
	client *mredis.Redis,
	key string,
	opts Opts,
	valCh chan<- T,
	errCh chan<- error,
) {
	block := strconv.Itoa(opts.blockSeconds())
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var popped []string
		err := client.Do(radix.Cmd(&popped, "BLPOP", key, block))
		if err != nil {
			mlog.From(cmp).Error("BLPOP failed", ctx)
			select {
			case errCh <- err:
			case <-ctx.Done():
			}
			return
		}
		if len(popped) != 2 {
			// timed out waiting for an item; loop and try again
			continue
		}

		var v T
		if err := json.Unmarshal([]byte(popped[1]), &v); err != nil {
			mlog.From(cmp).Error("malformed redis payload", ctx)
			select {
			case errCh <- err:
			case <-ctx.Done():
			}
			return
		}

		select {
		case valCh <- v:
		case <-ctx.Done():
			return
		}
	}
}

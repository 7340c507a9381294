package fredis

import (
	"context"
	"encoding/json"

	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mdb/mredis"
	"github.com/mediocregopher/florun/mlog"
	"github.com/mediocregopher/florun/mrun"

	"github.com/mediocregopher/florun/fstream"
)

// StreamPayloadField is the Redis stream entry field NewStreamUpstream
// expects each entry's JSON-encoded value to be stored under.
const StreamPayloadField = "payload"

// NewStreamUpstream registers a read loop (via mrun.Go, parented on cmp's
// context) which consumes opts.Key as a Redis stream through the consumer
// group named by opts.Group (via mdb/mredis.Stream's XREADGROUP wrapper),
// JSON-decodes each entry's StreamPayloadField into T, and returns an
// fstream.Upstream[T] fed by that loop.
//
// Unlike NewUpstream's BLPOP list, an entry is Ack'd only once its decoded
// value has been handed to valCh; an entry that isn't (the process dies
// first, its payload fails to decode, or ctx is canceled first) stays
// unacknowledged in opts.Group's pending list in Redis. The loop does not
// read pending entries back: it returns right after a Nack, and a new
// mredis.Stream reads only entries never delivered to the group. The loop
// runs until cmp's context is canceled, an XREADGROUP call fails, or an
// entry's payload fails to decode.
func NewStreamUpstream[T any](cmp *mcmp.Component, client *mredis.Redis, opts mredis.StreamOpts) fstream.Upstream[T] {
	valCh := make(chan T, chanBuffer)
	errCh := make(chan error, 1)

	stream := mredis.NewStream(client, opts)

	mrun.Go(cmp.Context(), func(ctx context.Context) error {
		streamReadLoop[T](ctx, cmp, stream, valCh, errCh)
		return nil
	})

	return fstream.FromChannel[T](valCh, errCh)
}

func streamReadLoop[T any](
	ctx context.Context,
	cmp *mcmp.Component,
	stream *mredis.Stream,
	valCh chan<- T,
	errCh chan<- error,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		entry, ok, err := stream.Next()
		if err != nil {
			mlog.From(cmp).Error("XREADGROUP failed", ctx)
			select {
			case errCh <- err:
			case <-ctx.Done():
			}
			return
		}
		if !ok {
			// stream.Next's Block timeout elapsed with nothing new; loop and
			// try again.
			continue
		}

		var v T
		if err := json.Unmarshal([]byte(entry.Fields[StreamPayloadField]), &v); err != nil {
			mlog.From(cmp).Error("malformed redis stream payload", ctx)
			entry.Nack()
			select {
			case errCh <- err:
			case <-ctx.Done():
			}
			return
		}

		select {
		case valCh <- v:
			if err := entry.Ack(); err != nil {
				mlog.From(cmp).Error("XACK failed", ctx)
			}
		case <-ctx.Done():
			entry.Nack()
			return
		}
	}
}

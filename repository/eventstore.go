package repository

import (
	"context"

	"github.com/eventcart/backend/pkg/stream"
)

// EventStore is the append-only log boundary. The store owns durability and
// ordering; the core only folds what the store hands back.
type EventStore interface {
	// AppendToStream appends the events to the stream in the given order,
	// assigning contiguous positions starting at 1.
	AppendToStream(ctx context.Context, streamID string, events []stream.EventData) error
	// ReadStream returns a lazy sequence of all recorded events for the
	// stream in position order. Read errors surface from Sequence.Next.
	ReadStream(ctx context.Context, streamID string) stream.Sequence
}

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrStreamNotFound is returned when a fold finishes without having applied
// a single event: either the stream does not exist or it contained only
// tombstones.
var ErrStreamNotFound = errors.New("stream not found")

// EventData is a typed event payload handed to the store for appending.
type EventData struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// RecordedEvent is an event as delivered by a log reader. Position reflects
// append order within the stream and is the only ordering the fold relies on.
type RecordedEvent struct {
	StreamID   string          `json:"stream_id"`
	Position   uint64          `json:"position"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// IsEmpty reports whether the entry is a log-reader artifact with no payload
// (tombstone or unresolved link). Such entries are skipped during a fold.
func (e RecordedEvent) IsEmpty() bool {
	return e.Type == "" && len(e.Data) == 0
}

// Sequence is a pull-based, possibly-suspending source of recorded events.
// Next may block waiting on I/O; it returns ok=false once the sequence is
// exhausted. Implementations must deliver events in stream order.
type Sequence interface {
	Next(ctx context.Context) (event RecordedEvent, ok bool, err error)
}

// ApplyFunc computes the next aggregate snapshot from the current one and a
// recorded event. A nil current state means no event has been applied yet.
// The returned snapshot must be a new value; callers rely on previous
// snapshots staying untouched.
type ApplyFunc[T any] func(current *T, event RecordedEvent) (*T, error)

// Aggregate folds an ordered event sequence into a single entity. Events are
// consumed strictly one at a time: each apply call sees the exact snapshot
// produced by the previous one. Empty entries are skipped. An apply failure
// aborts the fold and is returned verbatim. A fold that never applied an
// event fails with ErrStreamNotFound.
func Aggregate[T any](ctx context.Context, seq Sequence, apply ApplyFunc[T]) (*T, error) {
	var current *T

	for {
		event, ok, err := seq.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if event.IsEmpty() {
			continue
		}
		next, err := apply(current, event)
		if err != nil {
			return nil, err
		}
		current = next
	}

	if current == nil {
		return nil, ErrStreamNotFound
	}
	return current, nil
}

// SliceSequence adapts an in-memory slice of recorded events to a Sequence.
type SliceSequence struct {
	events []RecordedEvent
	next   int
}

// NewSliceSequence wraps the provided events without copying them.
func NewSliceSequence(events []RecordedEvent) *SliceSequence {
	return &SliceSequence{events: events}
}

func (s *SliceSequence) Next(ctx context.Context) (RecordedEvent, bool, error) {
	if err := ctx.Err(); err != nil {
		return RecordedEvent{}, false, err
	}
	if s.next >= len(s.events) {
		return RecordedEvent{}, false, nil
	}
	event := s.events[s.next]
	s.next++
	return event, true, nil
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventcart/backend/pkg/stream"
	"github.com/eventcart/backend/repository"
)

const readPageSize = 200

type eventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a Postgres-backed EventStore implementation.
func NewEventStore(pool *pgxpool.Pool) repository.EventStore {
	return &eventStore{pool: pool}
}

func (s *eventStore) AppendToStream(ctx context.Context, streamID string, events []stream.EventData) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const positionQuery = `
	SELECT COALESCE(MAX(position), 0)
	FROM events
	WHERE stream_id = $1
	`
	var position uint64
	if err := tx.QueryRow(ctx, positionQuery, streamID).Scan(&position); err != nil {
		return err
	}

	const insertQuery = `
	INSERT INTO events (stream_id, position, type, data, recorded_at)
	VALUES ($1, $2, $3, $4, NOW())
	`
	for _, event := range events {
		position++
		if _, err := tx.Exec(ctx, insertQuery, streamID, position, event.Type, []byte(event.Data)); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *eventStore) ReadStream(ctx context.Context, streamID string) stream.Sequence {
	return &pagedSequence{pool: s.pool, streamID: streamID}
}

// pagedSequence pulls events in position order one page at a time, so large
// streams never sit fully in memory while a fold is suspended on I/O.
type pagedSequence struct {
	pool     *pgxpool.Pool
	streamID string

	page    []stream.RecordedEvent
	next    int
	lastPos uint64
	drained bool
}

func (s *pagedSequence) Next(ctx context.Context) (stream.RecordedEvent, bool, error) {
	if s.next >= len(s.page) {
		if s.drained {
			return stream.RecordedEvent{}, false, nil
		}
		if err := s.fetch(ctx); err != nil {
			return stream.RecordedEvent{}, false, err
		}
		if len(s.page) == 0 {
			return stream.RecordedEvent{}, false, nil
		}
	}

	event := s.page[s.next]
	s.next++
	s.lastPos = event.Position
	return event, true, nil
}

func (s *pagedSequence) fetch(ctx context.Context) error {
	const query = `
	SELECT stream_id, position, type, data, recorded_at
	FROM events
	WHERE stream_id = $1 AND position > $2
	ORDER BY position ASC
	LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, s.streamID, s.lastPos, readPageSize)
	if err != nil {
		return err
	}
	defer rows.Close()

	s.page = s.page[:0]
	s.next = 0
	for rows.Next() {
		event, err := scanRecordedEvent(rows)
		if err != nil {
			return err
		}
		s.page = append(s.page, event)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(s.page) < readPageSize {
		s.drained = true
	}
	return nil
}

func scanRecordedEvent(row pgx.Row) (stream.RecordedEvent, error) {
	var event stream.RecordedEvent
	var data []byte
	if err := row.Scan(
		&event.StreamID,
		&event.Position,
		&event.Type,
		&data,
		&event.RecordedAt,
	); err != nil {
		return stream.RecordedEvent{}, err
	}
	event.Data = make([]byte, len(data))
	copy(event.Data, data)
	return event, nil
}

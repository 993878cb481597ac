package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type counter struct {
	Total int `json:"total"`
}

func countingApply(current *counter, event RecordedEvent) (*counter, error) {
	next := counter{}
	if current != nil {
		next = *current
	}
	var payload struct {
		Amount int `json:"amount"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return nil, err
	}
	next.Total += payload.Amount
	return &next, nil
}

func amountEvent(position uint64, amount int) RecordedEvent {
	data, _ := json.Marshal(map[string]int{"amount": amount})
	return RecordedEvent{StreamID: "counter-1", Position: position, Type: "AmountChanged", Data: data}
}

func TestAggregateEmptyStream(t *testing.T) {
	_, err := Aggregate(context.Background(), NewSliceSequence(nil), countingApply)
	require.ErrorIs(t, err, ErrStreamNotFound)
}

func TestAggregateOnlyTombstones(t *testing.T) {
	events := []RecordedEvent{
		{StreamID: "counter-1", Position: 1},
		{StreamID: "counter-1", Position: 2},
	}
	_, err := Aggregate(context.Background(), NewSliceSequence(events), countingApply)
	require.ErrorIs(t, err, ErrStreamNotFound)
}

func TestAggregateFoldsInOrder(t *testing.T) {
	var seen []uint64
	apply := func(current *counter, event RecordedEvent) (*counter, error) {
		seen = append(seen, event.Position)
		return countingApply(current, event)
	}

	events := []RecordedEvent{
		amountEvent(1, 1),
		amountEvent(2, 2),
		amountEvent(3, 3),
	}
	result, err := Aggregate(context.Background(), NewSliceSequence(events), apply)
	require.NoError(t, err)
	require.Equal(t, 6, result.Total)
	require.Equal(t, []uint64{1, 2, 3}, seen)
}

func TestAggregateSkipsTombstones(t *testing.T) {
	events := []RecordedEvent{
		amountEvent(1, 5),
		{StreamID: "counter-1", Position: 2},
		amountEvent(3, 7),
	}
	result, err := Aggregate(context.Background(), NewSliceSequence(events), countingApply)
	require.NoError(t, err)
	require.Equal(t, 12, result.Total)
}

func TestAggregatePropagatesApplyErrorVerbatim(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	apply := func(current *counter, event RecordedEvent) (*counter, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return countingApply(current, event)
	}

	events := []RecordedEvent{
		amountEvent(1, 1),
		amountEvent(2, 2),
		amountEvent(3, 3),
	}
	result, err := Aggregate(context.Background(), NewSliceSequence(events), apply)
	require.Nil(t, result)
	require.Same(t, boom, err)
	require.Equal(t, 2, calls, "fold must abort on the failing event")
}

func TestAggregatePropagatesSequenceError(t *testing.T) {
	readErr := errors.New("read failed")
	seq := &failingSequence{err: readErr}
	_, err := Aggregate(context.Background(), seq, countingApply)
	require.Same(t, readErr, err)
}

func TestAggregateDeterministicReplay(t *testing.T) {
	events := []RecordedEvent{
		amountEvent(1, 10),
		amountEvent(2, -4),
		amountEvent(3, 1),
	}

	first, err := Aggregate(context.Background(), NewSliceSequence(events), countingApply)
	require.NoError(t, err)
	second, err := Aggregate(context.Background(), NewSliceSequence(events), countingApply)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSliceSequenceHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq := NewSliceSequence([]RecordedEvent{amountEvent(1, 1)})
	_, _, err := seq.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

type failingSequence struct {
	err error
}

func (s *failingSequence) Next(ctx context.Context) (RecordedEvent, bool, error) {
	return RecordedEvent{}, false, s.err
}

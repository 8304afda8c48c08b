package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *captureSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	return nil
}

func (s *captureSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func runEvent(stage Stage, source string) Event {
	return Event{
		RunID:  NewRunID(),
		TS:     time.Now().UTC(),
		Stage:  stage,
		Source: source,
	}
}

func TestHubDeliversOnClose(t *testing.T) {
	sink := &captureSink{}
	hub := NewHub(Config{MaxBatchWait: time.Hour}, sink)

	hub.Emit(runEvent(StageRunStart, ""))
	hub.Emit(runEvent(StageRecordOK, "statsapi"))
	hub.Emit(runEvent(StageRunDone, ""))

	require.NoError(t, hub.Close(context.Background()))

	got := sink.snapshot()
	require.Len(t, got, 3, "close must drain buffered events")
	assert.Equal(t, StageRunStart, got[0].Stage)
	assert.Equal(t, "statsapi", got[1].Source)
	assert.True(t, sink.closed)
}

func TestHubFlushesFullBatches(t *testing.T) {
	sink := &captureSink{}
	hub := NewHub(Config{MaxBatchEvents: 2, MaxBatchWait: time.Hour}, sink)
	defer hub.Close(context.Background())

	hub.Emit(runEvent(StageRecordOK, "savant"))
	hub.Emit(runEvent(StageRecordOK, "savant"))

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestHubDiscardsInvalidEvents(t *testing.T) {
	sink := &captureSink{}
	hub := NewHub(Config{}, sink)

	hub.Emit(Event{Stage: StageRunStart}) // no run id, no timestamp
	hub.Emit(runEvent(StageRecordOK, "")) // record event without a source

	require.NoError(t, hub.Close(context.Background()))
	assert.Empty(t, sink.snapshot())
}

func TestHubEmitAfterCloseIsSafe(t *testing.T) {
	hub := NewHub(Config{})
	require.NoError(t, hub.Close(context.Background()))
	hub.Emit(runEvent(StageRunStart, "")) // must not panic or block
}

func TestRunIDRendersAsUUID(t *testing.T) {
	id := NewRunID()
	require.NotEqual(t, uuid.Nil, id)

	parsed, err := uuid.Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

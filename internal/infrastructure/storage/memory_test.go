package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	runID := uuid.New()

	run := &RunRecord{ID: runID, Network: "net", Status: RunStatusRunning, StartedAt: time.Now()}
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "net", got.Network)
	assert.Equal(t, RunStatusRunning, got.Status)

	// Updating the same id overwrites.
	run.Status = RunStatusCompleted
	require.NoError(t, store.SaveRun(ctx, run))
	got, err = store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)

	_, err = store.GetRun(ctx, uuid.New())
	assert.Error(t, err)
}

func TestMemoryStoreEventsKeepOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	runID := uuid.New()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendEvent(ctx, &EventRecord{
			RunID: runID, Type: EventOpCompleted, Op: fmt.Sprintf("op%d", i), At: time.Now(),
		}))
	}

	events, err := store.ListEvents(ctx, runID)
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i, e := range events {
		assert.Equal(t, fmt.Sprintf("op%d", i), e.Op)
		assert.NotEqual(t, uuid.Nil, e.ID, "ids are assigned on append")
	}
}

func TestMemoryStoreListRunsFiltersByNetwork(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, &RunRecord{ID: uuid.New(), Network: "a", StartedAt: time.Now()}))
	require.NoError(t, store.SaveRun(ctx, &RunRecord{ID: uuid.New(), Network: "b", StartedAt: time.Now()}))

	runs, err := store.ListRuns(ctx, "a")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "a", runs[0].Network)

	all, err := store.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestJournalObserverRecordsLifecycle(t *testing.T) {
	store := NewMemoryStore()
	journal := NewJournalObserver(store, zerolog.Nop())
	runID := uuid.New()

	journal.OnRunStarted("net", runID.String())
	journal.OnOpStarted(runID.String(), "op1")
	journal.OnOpCompleted(runID.String(), "op1", time.Millisecond)
	journal.OnDataEvicted(runID.String(), "tmp")
	journal.OnRunCompleted("net", runID.String(), time.Millisecond)

	run, err := store.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	require.NotNil(t, run.FinishedAt)

	events, err := store.ListEvents(context.Background(), runID)
	require.NoError(t, err)
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	assert.Equal(t, []string{
		EventRunStarted, EventOpStarted, EventOpCompleted, EventDataEvicted, EventRunCompleted,
	}, types)
}

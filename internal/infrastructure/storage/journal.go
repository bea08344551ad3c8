package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// JournalObserver records run and operation events into a Store. Writes
// are best-effort: journal errors are logged and never affect the run.
type JournalObserver struct {
	store Store
	log   zerolog.Logger
}

// NewJournalObserver creates an observer appending to store.
func NewJournalObserver(store Store, log zerolog.Logger) *JournalObserver {
	return &JournalObserver{store: store, log: log}
}

func (j *JournalObserver) saveRun(run *RunRecord) {
	if err := j.store.SaveRun(context.Background(), run); err != nil {
		j.log.Warn().Err(err).Str("run", run.ID.String()).Msg("failed to journal run")
	}
}

func (j *JournalObserver) append(event *EventRecord) {
	event.At = time.Now()
	if err := j.store.AppendEvent(context.Background(), event); err != nil {
		j.log.Warn().Err(err).Str("run", event.RunID.String()).Msg("failed to journal event")
	}
}

func parseRunID(runID string) uuid.UUID {
	id, err := uuid.Parse(runID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// OnRunStarted implements monitoring.RunObserver.
func (j *JournalObserver) OnRunStarted(network, runID string) {
	id := parseRunID(runID)
	j.saveRun(&RunRecord{ID: id, Network: network, Status: RunStatusRunning, StartedAt: time.Now()})
	j.append(&EventRecord{RunID: id, Type: EventRunStarted})
}

// OnRunCompleted implements monitoring.RunObserver.
func (j *JournalObserver) OnRunCompleted(network, runID string, duration time.Duration) {
	id := parseRunID(runID)
	now := time.Now()
	j.saveRun(&RunRecord{ID: id, Network: network, Status: RunStatusCompleted,
		StartedAt: now.Add(-duration), FinishedAt: &now})
	j.append(&EventRecord{RunID: id, Type: EventRunCompleted})
}

// OnRunFailed implements monitoring.RunObserver.
func (j *JournalObserver) OnRunFailed(network, runID string, err error, duration time.Duration) {
	id := parseRunID(runID)
	now := time.Now()
	j.saveRun(&RunRecord{ID: id, Network: network, Status: RunStatusFailed,
		Error: err.Error(), StartedAt: now.Add(-duration), FinishedAt: &now})
	j.append(&EventRecord{RunID: id, Type: EventRunFailed, Error: err.Error()})
}

// OnOpStarted implements monitoring.RunObserver.
func (j *JournalObserver) OnOpStarted(runID, op string) {
	j.append(&EventRecord{RunID: parseRunID(runID), Type: EventOpStarted, Op: op})
}

// OnOpCompleted implements monitoring.RunObserver.
func (j *JournalObserver) OnOpCompleted(runID, op string, duration time.Duration) {
	j.append(&EventRecord{RunID: parseRunID(runID), Type: EventOpCompleted, Op: op})
}

// OnOpFailed implements monitoring.RunObserver.
func (j *JournalObserver) OnOpFailed(runID, op string, err error, duration time.Duration, endured bool) {
	j.append(&EventRecord{RunID: parseRunID(runID), Type: EventOpFailed, Op: op, Error: err.Error()})
}

// OnOpCancelled implements monitoring.RunObserver.
func (j *JournalObserver) OnOpCancelled(runID, op string) {
	j.append(&EventRecord{RunID: parseRunID(runID), Type: EventOpCancelled, Op: op})
}

// OnOpRescheduled implements monitoring.RunObserver.
func (j *JournalObserver) OnOpRescheduled(runID, op string, missing []string) {
	j.append(&EventRecord{RunID: parseRunID(runID), Type: EventOpRescheduled, Op: op})
}

// OnDataEvicted implements monitoring.RunObserver.
func (j *JournalObserver) OnDataEvicted(runID, key string) {
	j.append(&EventRecord{RunID: parseRunID(runID), Type: EventDataEvicted, Key: key})
}

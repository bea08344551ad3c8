package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types recorded in the execution journal.
const (
	EventRunStarted     = "run_started"
	EventRunCompleted   = "run_completed"
	EventRunFailed      = "run_failed"
	EventOpStarted      = "op_started"
	EventOpCompleted    = "op_completed"
	EventOpFailed       = "op_failed"
	EventOpCancelled    = "op_cancelled"
	EventOpRescheduled  = "op_rescheduled"
	EventDataEvicted    = "data_evicted"
)

// Run statuses recorded in the journal.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunRecord is one plan execution as seen by the journal.
type RunRecord struct {
	ID         uuid.UUID
	Network    string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// EventRecord is one journal entry of a run.
type EventRecord struct {
	ID    uuid.UUID
	RunID uuid.UUID
	Type  string
	// Op is the operation name for op_* events.
	Op string
	// Key is the data key for eviction events.
	Key   string
	Error string
	At    time.Time
}

// Store is the execution journal: an append-only record of runs and
// their step events. It is an observability surface; the engine never
// reads it back during execution.
type Store interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	AppendEvent(ctx context.Context, event *EventRecord) error
	GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error)
	ListRuns(ctx context.Context, network string) ([]*RunRecord, error)
	ListEvents(ctx context.Context, runID uuid.UUID) ([]*EventRecord, error)
}

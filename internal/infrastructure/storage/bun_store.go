package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunStore is the Postgres-backed journal.
type BunStore struct {
	db *bun.DB
}

// NewBunStore opens a Postgres journal for the given DSN.
func NewBunStore(dsn string) *BunStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunStore{db: db}
}

// NewBunStoreDB wraps an existing bun handle.
func NewBunStoreDB(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// InitSchema creates the journal tables if they do not exist.
func (s *BunStore) InitSchema(ctx context.Context) error {
	models := []interface{}{
		(*RunModel)(nil),
		(*EventModel)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database handle.
func (s *BunStore) Close() error { return s.db.Close() }

// RunModel is the runs table.
type RunModel struct {
	bun.BaseModel `bun:"table:runs,alias:r"`

	ID         uuid.UUID  `bun:"id,pk"`
	Network    string     `bun:"network"`
	Status     string     `bun:"status"`
	Error      string     `bun:"error"`
	StartedAt  time.Time  `bun:"started_at"`
	FinishedAt *time.Time `bun:"finished_at"`
}

// ToRecord converts the row to the domain record.
func (m *RunModel) ToRecord() *RunRecord {
	return &RunRecord{
		ID:         m.ID,
		Network:    m.Network,
		Status:     m.Status,
		Error:      m.Error,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
	}
}

// NewRunModel converts a record to its row form.
func NewRunModel(r *RunRecord) *RunModel {
	return &RunModel{
		ID:         r.ID,
		Network:    r.Network,
		Status:     r.Status,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// EventModel is the run_events table.
type EventModel struct {
	bun.BaseModel `bun:"table:run_events,alias:e"`

	ID    uuid.UUID `bun:"id,pk"`
	RunID uuid.UUID `bun:"run_id"`
	Type  string    `bun:"type"`
	Op    string    `bun:"op"`
	Key   string    `bun:"key"`
	Error string    `bun:"error"`
	At    time.Time `bun:"at"`
}

// ToRecord converts the row to the domain record.
func (m *EventModel) ToRecord() *EventRecord {
	return &EventRecord{
		ID:    m.ID,
		RunID: m.RunID,
		Type:  m.Type,
		Op:    m.Op,
		Key:   m.Key,
		Error: m.Error,
		At:    m.At,
	}
}

// NewEventModel converts a record to its row form.
func NewEventModel(e *EventRecord) *EventModel {
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &EventModel{
		ID:    id,
		RunID: e.RunID,
		Type:  e.Type,
		Op:    e.Op,
		Key:   e.Key,
		Error: e.Error,
		At:    e.At,
	}
}

// SaveRun inserts or updates a run record.
func (s *BunStore) SaveRun(ctx context.Context, run *RunRecord) error {
	model := NewRunModel(run)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("error = EXCLUDED.error").
		Set("finished_at = EXCLUDED.finished_at").
		Exec(ctx)
	return err
}

// AppendEvent appends one journal entry.
func (s *BunStore) AppendEvent(ctx context.Context, event *EventRecord) error {
	model := NewEventModel(event)
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return err
}

// GetRun returns a run by id.
func (s *BunStore) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	model := new(RunModel)
	if err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return model.ToRecord(), nil
}

// ListRuns returns the runs of a network, most recent first.
func (s *BunStore) ListRuns(ctx context.Context, network string) ([]*RunRecord, error) {
	var models []RunModel
	q := s.db.NewSelect().Model(&models).Order("started_at DESC")
	if network != "" {
		q = q.Where("network = ?", network)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*RunRecord, len(models))
	for i := range models {
		out[i] = models[i].ToRecord()
	}
	return out, nil
}

// ListEvents returns the journal entries of a run in append order.
func (s *BunStore) ListEvents(ctx context.Context, runID uuid.UUID) ([]*EventRecord, error) {
	var models []EventModel
	if err := s.db.NewSelect().Model(&models).Where("run_id = ?", runID).Order("at ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*EventRecord, len(models))
	for i := range models {
		out[i] = models[i].ToRecord()
	}
	return out, nil
}

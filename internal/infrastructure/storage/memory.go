package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory journal, the default when no database is
// configured. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[uuid.UUID]*RunRecord
	events map[uuid.UUID][]*EventRecord
}

// NewMemoryStore creates an empty in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:   make(map[uuid.UUID]*RunRecord),
		events: make(map[uuid.UUID][]*EventRecord),
	}
}

// SaveRun inserts or updates a run record.
func (s *MemoryStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("run record needs an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *run
	s.runs[run.ID] = &c
	return nil
}

// AppendEvent appends one journal entry.
func (s *MemoryStore) AppendEvent(ctx context.Context, event *EventRecord) error {
	if event == nil || event.RunID == uuid.Nil {
		return fmt.Errorf("event record needs a run id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *event
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.events[event.RunID] = append(s.events[event.RunID], &c)
	return nil
}

// GetRun returns a run by id.
func (s *MemoryStore) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	c := *run
	return &c, nil
}

// ListRuns returns the runs of a network (all runs when network is
// empty), most recent first.
func (s *MemoryStore) ListRuns(ctx context.Context, network string) ([]*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*RunRecord
	for _, run := range s.runs {
		if network != "" && run.Network != network {
			continue
		}
		c := *run
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// ListEvents returns the journal entries of a run in append order.
func (s *MemoryStore) ListEvents(ctx context.Context, runID uuid.UUID) ([]*EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events[runID]
	out := make([]*EventRecord, len(events))
	for i, e := range events {
		c := *e
		out[i] = &c
	}
	return out, nil
}

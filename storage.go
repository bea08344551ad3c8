package flowgraph

import (
	"github.com/rs/zerolog"

	"github.com/flowgraph-io/flowgraph/internal/infrastructure/storage"
)

// Store is the execution journal interface.
type Store = storage.Store

// RunRecord is one journalled plan execution.
type RunRecord = storage.RunRecord

// EventRecord is one journal entry of a run.
type EventRecord = storage.EventRecord

// MemoryStore is the in-memory journal.
type MemoryStore = storage.MemoryStore

// BunStore is the Postgres-backed journal.
type BunStore = storage.BunStore

// JournalObserver records run and operation events into a Store.
type JournalObserver = storage.JournalObserver

// NewMemoryStore creates an empty in-memory journal.
func NewMemoryStore() *MemoryStore { return storage.NewMemoryStore() }

// NewBunStore opens a Postgres journal for the given DSN.
func NewBunStore(dsn string) *BunStore { return storage.NewBunStore(dsn) }

// NewJournalObserver creates an observer appending to store.
func NewJournalObserver(store Store, log zerolog.Logger) *JournalObserver {
	return storage.NewJournalObserver(store, log)
}

package catalog

import (
	"context"
	"sync"
)

// Row is the persisted form of a record: its document text, embeddings for
// both modalities, and metadata.
type Row struct {
	ID       string
	Seq      uint64
	Kind     string
	Document string
	TextVec  []float32
	ImageVec []float32
	Meta     map[string]string
}

// Storage persists catalog rows. Implementations must be safe for
// concurrent use.
type Storage interface {
	SaveRow(ctx context.Context, row Row) error
	DeleteRow(ctx context.Context, id string) error
	LoadRows(ctx context.Context) ([]Row, error)
	Close() error
}

// MemoryStorage is an in-memory Storage implementation for tests and
// ephemeral stores.
type MemoryStorage struct {
	rows map[string]Row
	mu   sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{rows: make(map[string]Row)}
}

// SaveRow stores a row, replacing any existing row with the same ID.
func (m *MemoryStorage) SaveRow(ctx context.Context, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.ID] = row
	return nil
}

// DeleteRow removes a row by ID.
func (m *MemoryStorage) DeleteRow(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// LoadRows returns all stored rows.
func (m *MemoryStorage) LoadRows(ctx context.Context) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]Row, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, r)
	}
	return rows, nil
}

// Close is a no-op for memory storage.
func (m *MemoryStorage) Close() error {
	return nil
}

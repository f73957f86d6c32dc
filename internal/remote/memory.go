package remote

import (
	"context"
	"sync"

	"github.com/jortega/cuaderno/internal/models"
)

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)

// Memory is an in-memory Store for tests. It counts Upsert calls so
// debounce behavior can be asserted.
type Memory struct {
	mu      sync.Mutex
	docs    map[string]*models.Snapshot
	upserts int

	// FailNext makes the next operation return this error, once.
	FailNext error
}

// NewMemory creates an empty in-memory document store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*models.Snapshot)}
}

func (m *Memory) Fetch(_ context.Context, userID string) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	return m.docs[userID].Clone(), nil
}

func (m *Memory) Upsert(_ context.Context, userID string, snap *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return err
	}
	m.docs[userID] = snap.Clone()
	m.upserts++
	return nil
}

// Upserts returns how many uploads have been stored.
func (m *Memory) Upserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

// Doc returns the stored snapshot for a user, or nil.
func (m *Memory) Doc(userID string) *models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[userID].Clone()
}

// Seed stores a snapshot without counting it as an upload.
func (m *Memory) Seed(userID string, snap *models.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID] = snap.Clone()
}

func (m *Memory) takeErr() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

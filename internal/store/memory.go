package store

import (
	"context"
	"sort"
	"sync"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

// Memory keeps simulation history in process, bounded to capacity entries
type Memory struct {
	mu       sync.RWMutex
	byID     map[string]*models.SimulationResult
	order    []string
	capacity int
}

// NewMemory creates an in-memory store. A non-positive capacity keeps MaxListLimit entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = MaxListLimit
	}
	return &Memory{
		byID:     make(map[string]*models.SimulationResult),
		capacity: capacity,
	}
}

// Ping always succeeds
func (m *Memory) Ping(context.Context) error { return nil }

// Save stores a copy of r, evicting the oldest entry when full
func (m *Memory) Save(_ context.Context, r *models.SimulationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[r.ID]; !ok {
		m.order = append(m.order, r.ID)
	}
	cp := *r
	m.byID[r.ID] = &cp

	for len(m.order) > m.capacity {
		delete(m.byID, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

// Get returns a copy of the stored result
func (m *Memory) Get(_ context.Context, id string) (*models.SimulationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// List returns the most recent results first
func (m *Memory) List(_ context.Context, limit int) ([]*models.SimulationResult, error) {
	m.mu.RLock()
	results := make([]*models.SimulationResult, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		cp := *m.byID[m.order[i]]
		results = append(results, &cp)
	}
	m.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if limit = NormalizeLimit(limit); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Package store provides the archive backend: durable copies of the
// data worth keeping past process memory: dead-lettered jobs and the
// pantry-health history. The engine remains the source of truth for
// live state; the archive is a bounded, append-mostly mirror.
//
// Three backends exist: in-memory (default), Redis, and Postgres. All
// uphold the same retention caps so swapping backends never changes
// observable semantics.
package store

import (
	"context"
	"sync"

	"github.com/pantryos/backend/internal/core"
)

// Retention caps, per household.
const (
	MaxDeadLetters   = 1000
	MaxHealthEntries = 500
)

// Archive persists dead letters and health history.
type Archive interface {
	RecordDeadLetter(ctx context.Context, dl core.DeadLetter) error
	DeadLetters(ctx context.Context, householdID string) ([]core.DeadLetter, error)

	AppendHealth(ctx context.Context, score core.PantryHealthScore) error
	HealthHistory(ctx context.Context, householdID string, limit int) ([]core.PantryHealthScore, error)

	Close() error
}

// Memory is the default in-process archive.
type Memory struct {
	mu          sync.RWMutex
	deadLetters map[string][]core.DeadLetter
	health      map[string][]core.PantryHealthScore
}

// NewMemory returns an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{
		deadLetters: make(map[string][]core.DeadLetter),
		health:      make(map[string][]core.PantryHealthScore),
	}
}

func (m *Memory) RecordDeadLetter(_ context.Context, dl core.DeadLetter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.deadLetters[dl.HouseholdID], dl)
	if len(list) > MaxDeadLetters {
		list = list[len(list)-MaxDeadLetters:]
	}
	m.deadLetters[dl.HouseholdID] = list
	return nil
}

func (m *Memory) DeadLetters(_ context.Context, householdID string) ([]core.DeadLetter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.DeadLetter(nil), m.deadLetters[householdID]...), nil
}

func (m *Memory) AppendHealth(_ context.Context, score core.PantryHealthScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.health[score.HouseholdID], score)
	if len(list) > MaxHealthEntries {
		list = list[len(list)-MaxHealthEntries:]
	}
	m.health[score.HouseholdID] = list
	return nil
}

func (m *Memory) HealthHistory(_ context.Context, householdID string, limit int) ([]core.PantryHealthScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.health[householdID]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	return append([]core.PantryHealthScore(nil), list...), nil
}

func (m *Memory) Close() error { return nil }

var _ Archive = (*Memory)(nil)

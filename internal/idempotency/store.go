// Package idempotency memoizes the results of mutation commands so that
// client retries never double-apply. Records are keyed by (scope, key)
// and, for the in-memory store, live for the process lifetime.
package idempotency

import "sync"

// Scope namespaces idempotency keys per command family.
type Scope string

const (
	ScopeReceiptReview Scope = "receipt_review"
	ScopeManualEntry   Scope = "manual_entry"
	ScopeBatchEnqueue  Scope = "batch_enqueue"
	ScopeShoppingPatch Scope = "shopping_patch"
)

type recordKey struct {
	scope Scope
	key   string
}

// Store is a concurrency-safe (scope, key) → result memo.
type Store struct {
	mu      sync.RWMutex
	records map[recordKey]any
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[recordKey]any)}
}

// Get returns the memoized result for (scope, key), if any. Empty keys
// never match; commands without a key are never idempotent.
func (s *Store) Get(scope Scope, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[recordKey{scope, key}]
	return v, ok
}

// Put memoizes the result for (scope, key). Empty keys are ignored.
// First write wins; a replay must observe the original result.
func (s *Store) Put(scope Scope, key string, result any) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey{scope, key}
	if _, exists := s.records[k]; exists {
		return
	}
	s.records[k] = result
}

// Len reports the number of memoized records across all scopes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

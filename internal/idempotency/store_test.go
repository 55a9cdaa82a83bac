package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore()

	_, ok := s.Get(ScopeManualEntry, "manual-main-1")
	assert.False(t, ok)

	s.Put(ScopeManualEntry, "manual-main-1", 42)
	v, ok := s.Get(ScopeManualEntry, "manual-main-1")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestStoreScopesAreIsolated(t *testing.T) {
	s := NewStore()
	s.Put(ScopeReceiptReview, "k1", "review")
	s.Put(ScopeShoppingPatch, "k1", "patch")

	v, ok := s.Get(ScopeReceiptReview, "k1")
	require.True(t, ok)
	assert.Equal(t, "review", v)

	v, ok = s.Get(ScopeShoppingPatch, "k1")
	require.True(t, ok)
	assert.Equal(t, "patch", v)
	assert.Equal(t, 2, s.Len())
}

func TestStoreFirstWriteWins(t *testing.T) {
	s := NewStore()
	s.Put(ScopeBatchEnqueue, "b1", "first")
	s.Put(ScopeBatchEnqueue, "b1", "second")

	v, ok := s.Get(ScopeBatchEnqueue, "b1")
	require.True(t, ok)
	assert.Equal(t, "first", v)
}

func TestStoreIgnoresEmptyKeys(t *testing.T) {
	s := NewStore()
	s.Put(ScopeManualEntry, "", "nothing")
	_, ok := s.Get(ScopeManualEntry, "")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

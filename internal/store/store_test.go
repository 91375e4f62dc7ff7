package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewKey_NoScopesSentinel(t *testing.T) {
	assert.Equal(t, ScopeKeyNone, NewKey("hash", nil).ScopeKey)
	assert.Equal(t, ScopeKeyNone, NewKey("hash", []string{}).ScopeKey)

	// nil and empty scope lists are the same entry
	assert.Equal(t, NewKey("hash", nil), NewKey("hash", []string{}))
}

func TestNewKey_ScopesSpaceJoinedInOrder(t *testing.T) {
	key := NewKey("hash", []string{"orders/read", "orders/write"})
	assert.Equal(t, "orders/read orders/write", key.ScopeKey)

	// ordering is significant: no canonical sort
	reversed := NewKey("hash", []string{"orders/write", "orders/read"})
	assert.NotEqual(t, key, reversed)
}

func TestKeyString(t *testing.T) {
	key := NewKey("abc123", []string{"a", "b"})
	assert.Equal(t, "CLIENT#abc123/a b", key.String())

	assert.Equal(t, "CLIENT#abc123/NO_SCOPES", NewKey("abc123", nil).String())
}

func TestNewRecord_AppliesExpiryMargin(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)

	record := NewRecord("tok", "Bearer", 3600, issuedAt)

	assert.Equal(t, int64(1_700_000_000+3600-60), record.ExpiresAt)
	assert.Equal(t, int64(3600), record.ExpiresIn)
	assert.Equal(t, "tok", record.AccessToken)
	assert.Equal(t, "Bearer", record.TokenType)
}

func TestRecordExpired_Boundary(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	record := NewRecord("tok", "Bearer", 3600, issuedAt)

	// expires_at = T + E - 60: alive one second before, gone at the deadline
	assert.False(t, record.Expired(issuedAt.Add(3539*time.Second)))
	assert.True(t, record.Expired(issuedAt.Add(3540*time.Second)))
	assert.True(t, record.Expired(issuedAt.Add(3541*time.Second)))
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is a mock implementation of TokenStore for testing.
type mockStore struct {
	lookupRecord Record
	lookupFound  bool
	lookupErr    error
	upsertErr    error
	closeErr     error
	lookupCalls  int
	upsertCalls  int
}

func (m *mockStore) Lookup(ctx context.Context, key Key) (Record, bool, error) {
	m.lookupCalls++
	return m.lookupRecord, m.lookupFound, m.lookupErr
}

func (m *mockStore) Upsert(ctx context.Context, key Key, record Record) error {
	m.upsertCalls++
	return m.upsertErr
}

func (m *mockStore) Close() error {
	return m.closeErr
}

func TestInstrumented_Lookup_Hit(t *testing.T) {
	record := NewRecord("tok", "Bearer", 3600, time.Now())
	mock := &mockStore{lookupRecord: record, lookupFound: true}

	instrumented := NewInstrumented(mock, "memory")

	got, found, err := instrumented.Lookup(context.Background(), NewKey("hash", nil))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, record, got)
	assert.Equal(t, 1, mock.lookupCalls)
}

func TestInstrumented_Lookup_Miss(t *testing.T) {
	mock := &mockStore{}

	instrumented := NewInstrumented(mock, "memory")

	_, found, err := instrumented.Lookup(context.Background(), NewKey("hash", nil))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInstrumented_Lookup_Error(t *testing.T) {
	expected := errors.New("store down")
	mock := &mockStore{lookupErr: expected}

	instrumented := NewInstrumented(mock, "dynamodb")

	_, _, err := instrumented.Lookup(context.Background(), NewKey("hash", nil))
	assert.ErrorIs(t, err, expected)
}

func TestInstrumented_Upsert(t *testing.T) {
	mock := &mockStore{}

	instrumented := NewInstrumented(mock, "memory")

	err := instrumented.Upsert(context.Background(), NewKey("hash", nil), Record{})
	require.NoError(t, err)
	assert.Equal(t, 1, mock.upsertCalls)
}

func TestInstrumented_Upsert_Error(t *testing.T) {
	expected := errors.New("write failed")
	mock := &mockStore{upsertErr: expected}

	instrumented := NewInstrumented(mock, "valkey")

	err := instrumented.Upsert(context.Background(), NewKey("hash", nil), Record{})
	assert.ErrorIs(t, err, expected)
}

func TestInstrumented_Close(t *testing.T) {
	expected := errors.New("close failed")
	mock := &mockStore{closeErr: expected}

	instrumented := NewInstrumented(mock, "memory")

	assert.ErrorIs(t, instrumented.Close(), expected)
}

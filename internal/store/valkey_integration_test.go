//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supremecars/token-bridge/internal/store"
	"github.com/supremecars/token-bridge/internal/testhelpers"
)

func TestIntegrationValkeyStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	cfg := testhelpers.RunValkeyContainer(t)

	tokenStore, err := store.NewFromConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tokenStore.Close() })

	key := store.NewKey("integration-hash", []string{"orders/read"})
	record := store.NewRecord("issued-token", "Bearer", 3600, time.Now())

	_, found, err := tokenStore.Lookup(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, tokenStore.Upsert(ctx, key, record))

	got, found, err := tokenStore.Lookup(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, record, got)
}

func TestIntegrationValkeyStore_KeysArePartitioned(t *testing.T) {
	ctx := context.Background()

	cfg := testhelpers.RunValkeyContainer(t)

	tokenStore, err := store.NewFromConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tokenStore.Close() })

	now := time.Now()
	first := store.NewRecord("token-one", "Bearer", 3600, now)
	second := store.NewRecord("token-two", "Bearer", 3600, now)

	require.NoError(t, tokenStore.Upsert(ctx, store.NewKey("hash", []string{"a", "b"}), first))
	require.NoError(t, tokenStore.Upsert(ctx, store.NewKey("hash", []string{"b", "a"}), second))

	got, found, err := tokenStore.Lookup(ctx, store.NewKey("hash", []string{"a", "b"}))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first, got)

	got, found, err = tokenStore.Lookup(ctx, store.NewKey("hash", []string{"b", "a"}))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second, got)
}

func TestIntegrationValkeyStore_TLSMismatchFails(t *testing.T) {
	ctx := context.Background()

	cfg := testhelpers.RunValkeyContainer(t)
	cfg.Valkey.TLS = true // container is plaintext

	_, err := store.NewFromConfig(ctx, cfg)
	require.Error(t, err)
}

package store

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"
)

// Memory is an in-memory store implementation using otter. Intended for
// local development and tests; records do not survive a restart.
type Memory struct {
	cache   *otter.Cache[string, Record]
	counter *stats.Counter
	now     func() time.Time
}

// NewMemory creates an in-memory token store with the specified maximum
// entry count. The housekeeping TTL covers the longest plausible issuer
// lifetime; correctness comes from the per-record expiry check on lookup.
func NewMemory(maxSize int) (*Memory, error) {
	counter := stats.NewCounter()
	cache := otter.Must(&otter.Options[string, Record]{
		MaximumSize:      maxSize,
		StatsRecorder:    counter,
		ExpiryCalculator: otter.ExpiryCreating[string, Record](24 * time.Hour),
	})

	return &Memory{
		cache:   cache,
		counter: counter,
		now:     time.Now,
	}, nil
}

// Lookup retrieves an unexpired record.
func (m *Memory) Lookup(ctx context.Context, key Key) (Record, bool, error) {
	entry, ok := m.cache.GetEntry(key.String())
	if !ok {
		return Record{}, false, nil
	}

	if entry.Value.Expired(m.now()) {
		return Record{}, false, nil
	}

	return entry.Value, true, nil
}

// Upsert persists a record, overwriting any existing one under the key.
func (m *Memory) Upsert(ctx context.Context, key Key, record Record) error {
	m.cache.Set(key.String(), record)
	return nil
}

// Close releases resources held by the store.
func (m *Memory) Close() error {
	m.cache.InvalidateAll()
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Distributed is a valkey-backed token store, suitable when multiple bridge
// instances should share one token cache. Records are JSON-serialized and
// written with a key TTL matching the record deadline, so the server reclaims
// expired entries; the read path still checks expiry explicitly.
type Distributed struct {
	client valkey.Client
	now    func() time.Time
}

// NewDistributed creates a valkey-backed token store.
func NewDistributed(client valkey.Client) (*Distributed, error) {
	return &Distributed{
		client: client,
		now:    time.Now,
	}, nil
}

// Lookup retrieves an unexpired record using server-assisted client-side
// caching.
func (d *Distributed) Lookup(ctx context.Context, key Key) (Record, bool, error) {
	cmd := d.client.B().Get().Key(key.String()).Cache()
	result := d.client.DoCache(ctx, cmd, ExpiryMargin)

	if err := result.Error(); err != nil {
		// key not found is not an error in our semantics
		if valkey.IsValkeyNil(err) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("token cache get failed: %w", err)
	}

	val, err := result.AsBytes()
	if err != nil {
		return Record{}, false, fmt.Errorf("token cache value read failed: %w", err)
	}

	var record Record
	if err := json.Unmarshal(val, &record); err != nil {
		return Record{}, false, fmt.Errorf("token record unmarshal failed: %w", err)
	}

	if record.Expired(d.now()) {
		return Record{}, false, nil
	}

	return record, true, nil
}

// Upsert persists a record, overwriting any existing entry under the key.
// The entry TTL is the time remaining until the record deadline.
func (d *Distributed) Upsert(ctx context.Context, key Key, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("token record marshal failed: %w", err)
	}

	ttl := record.ExpiresAt - d.now().Unix()
	if ttl <= 0 {
		// already past the deadline; nothing worth storing
		return nil
	}

	cmd := d.client.B().Set().Key(key.String()).Value(string(data)).ExSeconds(ttl).Build()
	if err := d.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("token cache set failed: %w", err)
	}

	return nil
}

// Close releases the valkey client.
func (d *Distributed) Close() error {
	d.client.Close()
	return nil
}

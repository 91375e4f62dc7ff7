// Package store provides durable persistence for cached access tokens,
// keyed by hashed client identity and requested scope set.
package store

import (
	"context"
	"strings"
	"time"
)

// ExpiryMargin is subtracted from the issuer-declared lifetime before a
// record is persisted. A cached token is therefore never returned with less
// than this margin remaining, protecting callers from clock and latency skew.
const ExpiryMargin = 60 * time.Second

// ScopeKeyNone is the sort-key sentinel recorded when a token was requested
// without scopes.
const ScopeKeyNone = "NO_SCOPES"

// Key identifies a cached token record. ClientHash is the one-way transform
// of the client credentials; ScopeKey is the normalized scope descriptor.
type Key struct {
	ClientHash string
	ScopeKey   string
}

// NewKey builds a Key from a hashed client identity and the caller-supplied
// scope list. Scopes are space-joined in the order given: order is
// significant, so two orderings of the same scope set produce distinct keys.
// An empty or nil scope list maps to the ScopeKeyNone sentinel.
func NewKey(clientHash string, scopes []string) Key {
	scopeKey := ScopeKeyNone
	if len(scopes) > 0 {
		scopeKey = strings.Join(scopes, " ")
	}

	return Key{
		ClientHash: clientHash,
		ScopeKey:   scopeKey,
	}
}

// String renders the key in the canonical single-string form used by
// flat-keyspace backends (memory, valkey).
func (k Key) String() string {
	return "CLIENT#" + k.ClientHash + "/" + k.ScopeKey
}

// Record is a cached token as persisted. Records are immutable: a fresh
// exchange for the same key overwrites the previous record wholesale.
type Record struct {
	AccessToken string `json:"access_token" dynamodbav:"access_token"`
	TokenType   string `json:"token_type" dynamodbav:"token_type"`
	ExpiresIn   int64  `json:"expires_in" dynamodbav:"expires_in"`
	ExpiresAt   int64  `json:"expires_at" dynamodbav:"expires_at"`
}

// NewRecord computes the persisted form of an issued token. ExpiresAt is the
// issue time plus the issuer lifetime, less ExpiryMargin.
func NewRecord(accessToken, tokenType string, expiresIn int64, issuedAt time.Time) Record {
	return Record{
		AccessToken: accessToken,
		TokenType:   tokenType,
		ExpiresIn:   expiresIn,
		ExpiresAt:   issuedAt.Unix() + expiresIn - int64(ExpiryMargin.Seconds()),
	}
}

// Expired reports whether the record's deadline has passed at the given time.
func (r Record) Expired(now time.Time) bool {
	return now.Unix() >= r.ExpiresAt
}

// TokenStore defines the persistence contract for cached tokens.
//
// Lookup treats an expired record identically to a missing one: callers never
// observe a record whose deadline has passed. Whether expired records are
// physically removed is a backend housekeeping concern (DynamoDB table TTL,
// valkey key expiry) and not part of the contract.
//
// Upsert overwrites any existing record under the same key. Concurrent
// upserts to the same key are last-write-wins: both writers hold a valid
// token for the same credentials and scopes, so either outcome is correct.
type TokenStore interface {
	// Lookup retrieves an unexpired record.
	// Returns the record, whether it was found, and any error.
	Lookup(ctx context.Context, key Key) (Record, bool, error)

	// Upsert persists a record for the key, overwriting any existing one.
	Upsert(ctx context.Context, key Key, record Record) error

	// Close releases any resources held by the store.
	Close() error
}

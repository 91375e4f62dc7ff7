// Package issuer acquires client-credentials access tokens, reusing cached
// tokens while they remain valid and fetching fresh ones otherwise.
package issuer

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/supremecars/token-bridge/internal/identity"
	"github.com/supremecars/token-bridge/internal/store"
)

// Exchanger performs the client-credentials exchange with the identity
// provider. Satisfied by identity.Client.Exchange.
type Exchanger func(ctx context.Context, clientID, clientSecret string, scopes []string) (identity.Token, error)

// IssueFunc is the token acquisition contract exposed to the HTTP layer.
// Satisfied by (*Service).Issue.
type IssueFunc func(ctx context.Context, clientID, clientSecret string, scopes []string) (ReturnedToken, error)

// ReturnedToken is the value handed to the caller. For a cache hit,
// ExpiresIn is the remaining lifetime recomputed against the stored deadline,
// so repeated hits report a monotonically shrinking value. For a fresh
// issuance it is the issuer's original (unadjusted) lifetime.
type ReturnedToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service composes the secret hasher, token store and provider client.
// Each call is an independent, stateless invocation: concurrent requests
// share no mutable state. Concurrent misses for the same key may both reach
// the provider and both write the store; that race is accepted (last write
// wins, both tokens valid for the caller) in preference to a single-flight
// or distributed-lock layer.
type Service struct {
	store    store.TokenStore
	exchange Exchanger
	now      func() time.Time
}

// New creates a token cache service over the given store and exchanger.
func New(tokenStore store.TokenStore, exchange Exchanger) *Service {
	return &Service{
		store:    tokenStore,
		exchange: exchange,
		now:      time.Now,
	}
}

// Issue returns a valid access token for the supplied credentials and scope
// set, from cache when possible. Errors are propagated unmodified in kind:
// *ValidationError for bad input, *identity.UpstreamAuthError when the
// provider rejects the exchange, *StoreUnavailableError when persistence
// fails. No failure is downgraded to a miss or a fabricated token.
func (s *Service) Issue(ctx context.Context, clientID, clientSecret string, scopes []string) (ReturnedToken, error) {
	if clientID == "" || clientSecret == "" {
		return ReturnedToken{}, &ValidationError{Message: "client credentials are required"}
	}

	key := store.NewKey(ClientSecretHash(clientID, clientSecret), scopes)

	logger := log.Ctx(ctx).With().
		Str("client", clientID).
		Str("scopes", key.ScopeKey).
		Logger()

	cached, found, err := s.store.Lookup(ctx, key)
	if err != nil {
		return ReturnedToken{}, &StoreUnavailableError{Op: "lookup", Err: err}
	}

	if found {
		remaining := cached.ExpiresAt - s.now().Unix()

		logger.Debug().
			Int64("remaining_secs", remaining).
			Msg("issuing cached token")

		return ReturnedToken{
			AccessToken: cached.AccessToken,
			TokenType:   cached.TokenType,
			ExpiresIn:   remaining,
		}, nil
	}

	logger.Info().Msg("no cached token, requesting from identity provider")

	token, err := s.exchange(ctx, clientID, clientSecret, scopes)
	if err != nil {
		return ReturnedToken{}, err
	}

	record := store.NewRecord(token.AccessToken, token.TokenType, token.ExpiresIn, s.now())
	if err := s.store.Upsert(ctx, key, record); err != nil {
		return ReturnedToken{}, &StoreUnavailableError{Op: "upsert", Err: err}
	}

	logger.Info().Msg("new token cached")

	// First response carries the issuer's lifetime as granted; the stored
	// deadline (and every subsequent hit) accounts for the safety margin.
	return ReturnedToken{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
	}, nil
}

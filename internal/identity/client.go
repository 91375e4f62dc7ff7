// Package identity performs the client-credentials exchange against the
// upstream authorization server.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/supremecars/token-bridge/internal/config"
)

// Token is the provider's successful token response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UpstreamAuthError reports a non-success response from the identity
// provider's token endpoint. The exchange is not retried here: retry policy,
// if any, belongs to the caller.
type UpstreamAuthError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("identity provider rejected token exchange: status %d", e.StatusCode)
}

// Status implements the handler error mapping. Client-fault upstream statuses
// are reflected to the caller; anything else is reported as a bad gateway.
func (e *UpstreamAuthError) Status() (int, string) {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return e.StatusCode, "token exchange rejected by identity provider"
	}
	return http.StatusBadGateway, "identity provider unavailable"
}

// Client exchanges client credentials for access tokens via the configured
// token endpoint. The zero value is not usable; construct with New.
type Client struct {
	endpoint       string
	wafHeaderName  string
	wafHeaderValue string
	httpClient     *http.Client
}

// New creates a provider client from configuration. The http.DefaultClient is
// used, picking up the process-wide instrumented transport.
func New(cfg config.IdentityConfig) (Client, error) {
	if cfg.TokenEndpoint == "" {
		return Client{}, fmt.Errorf("token endpoint is required")
	}

	if _, err := url.Parse(cfg.TokenEndpoint); err != nil {
		return Client{}, fmt.Errorf("invalid token endpoint: %w", err)
	}

	return Client{
		endpoint:       cfg.TokenEndpoint,
		wafHeaderName:  cfg.WAFHeaderName,
		wafHeaderValue: cfg.WAFHeaderValue,
		httpClient:     http.DefaultClient,
	}, nil
}

// maxErrorBodyBytes limits how much of an upstream error response is
// captured for diagnostics.
const maxErrorBodyBytes = 4 << 10 // 4 KB

// Exchange performs the client-credentials grant. Credentials travel as a
// Basic authorization header; scopes, when present, are space-joined into a
// single scope parameter. A non-success response yields an
// *UpstreamAuthError carrying the provider's status and body.
func (c Client) Exchange(ctx context.Context, clientID, clientSecret string, scopes []string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if len(scopes) > 0 {
		form.Set("scope", strings.Join(scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("could not create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, clientSecret)
	if c.wafHeaderName != "" {
		// static edge-protection header required by the provider's WAF
		req.Header.Set(c.wafHeaderName, c.wafHeaderValue)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		log.Info().
			Int("status", resp.StatusCode).
			Msg("identity provider rejected token exchange")

		return Token{}, &UpstreamAuthError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return Token{}, fmt.Errorf("could not decode token response: %w", err)
	}

	return token, nil
}

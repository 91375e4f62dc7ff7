package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/supremecars/token-bridge/internal/audit"
	"github.com/supremecars/token-bridge/internal/issuer"
	"github.com/supremecars/token-bridge/internal/order"
)

// HTTPStatuser provides HTTP status information for errors
type HTTPStatuser interface {
	Status() (int, string)
}

// formContentType is the only accepted media type for token requests.
const formContentType = "application/x-www-form-urlencoded"

// tokenCredentials extracts the Basic client credentials from the request.
// Format violations are reported before any store or provider access.
func tokenCredentials(r *http.Request) (string, string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "", &issuer.ValidationError{Message: "no authorization header provided"}
	}

	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		return "", "", &issuer.ValidationError{Message: "invalid authorization header format"}
	}

	if clientID == "" || clientSecret == "" {
		return "", "", &issuer.ValidationError{Message: "invalid client credentials"}
	}

	return clientID, clientSecret, nil
}

// tokenRequest validates the form body of a token request, returning the
// requested scopes. Only the client_credentials grant is supported.
func tokenRequest(r *http.Request) ([]string, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := strings.Cut(ct, ";")
		if strings.TrimSpace(mediaType) != formContentType {
			return nil, &issuer.ValidationError{Message: "invalid content type"}
		}
	}

	if err := r.ParseForm(); err != nil {
		return nil, &issuer.ValidationError{Message: "malformed request body"}
	}

	if grantType := r.PostForm.Get("grant_type"); grantType != "client_credentials" {
		return nil, &issuer.ValidationError{Message: "invalid grant type"}
	}

	// scope order is preserved: it is significant to the cache key
	var scopes []string
	if scopeParam := r.PostForm.Get("scope"); scopeParam != "" {
		scopes = strings.Fields(scopeParam)
	}

	return scopes, nil
}

func handlePostToken(issue issuer.IssueFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		ctx := r.Context()
		entry := audit.Log(ctx)

		clientID, clientSecret, err := tokenCredentials(r)
		if err != nil {
			log.Info().Msgf("invalid token request credentials: %v", err)
			writeError(w, err)
			return
		}

		entry.ClientID = clientID

		scopes, err := tokenRequest(r)
		if err != nil {
			log.Info().Msgf("invalid token request: %v", err)
			writeError(w, err)
			return
		}

		entry.Scopes = scopes

		token, err := issue(ctx, clientID, clientSecret, scopes)
		if err != nil {
			status, message := errorStatus(err)
			log.Info().Msgf("token issuance failed: %v", err)
			entry.Error = err.Error()
			writeJSONError(w, status, message)
			return
		}

		entry.ExpirySecs = token.ExpiresIn

		writeJSON(w, http.StatusOK, token)
	})
}

func handlePostOrder(create order.CreateFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		var req order.CreateOrder
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Info().Msgf("invalid order request body: %v", err)
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := create(r.Context(), req)
		if err != nil {
			status, message := errorStatus(err)
			log.Info().Msgf("order creation failed: %v", err)
			audit.Log(r.Context()).Error = err.Error()
			writeJSONError(w, status, message)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	})
}

func handleHealthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, limit)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	marshalled, err := json.Marshal(body)
	if err != nil {
		requestError(w, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(marshalled); err != nil {
		// record failure to log: trying to respond to the client at this
		// point will likely fail
		log.Info().Msgf("failed to write response: %v", err)
	}
}

// writeError maps the error through errorStatus and writes a JSON error
// response.
func writeError(w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	writeJSONError(w, status, message)
}

// writeJSONError writes a JSON error response with the given status code and message.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// At this point the status code has been written, so we can only log
		log.Info().Msgf("failed to write JSON error response: %v", err)
	}
}

// errorStatus extracts HTTP status code and message from an error.
// Returns (StatusInternalServerError, StatusText) for errors that don't implement HTTPStatuser.
func errorStatus(err error) (int, string) {
	var statuser HTTPStatuser
	if errors.As(err, &statuser) {
		return statuser.Status()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func requestError(w http.ResponseWriter, statusCode int) {
	http.Error(w, http.StatusText(statusCode), statusCode)
}

// drainRequestBody drains the request body by reading and discarding the contents.
// This is useful to ensure the request body is fully consumed, which is important
// for connection reuse in HTTP/1 clients.
func drainRequestBody(r *http.Request) {
	if r.Body != nil {
		// 5kb max: after this we'll assume the client is broken or malicious
		// and close the connection
		io.CopyN(io.Discard, r.Body, 5*1024*1024)
	}
}

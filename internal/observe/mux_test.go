package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimMethod(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected string
	}{
		{
			name:     "POST route with path",
			pattern:  "POST /oauth/token",
			expected: "/oauth/token",
		},
		{
			name:     "GET route with path",
			pattern:  "GET /healthcheck",
			expected: "/healthcheck",
		},
		{
			name:     "route with wildcard",
			pattern:  "GET /orders/{id}",
			expected: "/orders/{id}",
		},
		{
			name:     "path without method",
			pattern:  "/orders",
			expected: "/orders",
		},
		{
			name:     "invalid method prefix kept",
			pattern:  "INVALID /path",
			expected: "INVALID /path",
		},
		{
			name:     "lowercase method not stripped",
			pattern:  "post /oauth/token",
			expected: "post /oauth/token",
		},
		{
			name:     "empty string",
			pattern:  "",
			expected: "",
		},
		{
			name:     "method without trailing space",
			pattern:  "GET",
			expected: "GET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrimMethod(tt.pattern)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMux_RoutesThroughWrapped(t *testing.T) {
	inner := http.NewServeMux()
	mux := NewMux(inner)

	mux.Handle("GET /ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

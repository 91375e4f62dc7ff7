// Package audit provides a request-scoped audit trail for token issuance.
// An entry is attached to the request context by the middleware, enriched by
// downstream components, and written as a single structured log event when
// the request completes (including on panic).
package audit

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Level is the level used for audit events. It sits above the standard
// levels so audit output survives logger level filtering.
const Level = zerolog.Level(12)

// Entry is the audit record for a single request. Fields are populated as
// the request progresses; the client secret is never recorded.
type Entry struct {
	Method    string
	Path      string
	Status    int
	SourceIP  string
	UserAgent string
	Error     string

	// token issuance detail
	ClientID   string
	Scopes     []string
	CacheHit   bool
	ExpirySecs int64
}

// MarshalZerologObject writes the entry as a structured log object.
func (e *Entry) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("method", e.Method).
		Str("path", e.Path).
		Int("status", e.Status).
		Str("sourceIP", e.SourceIP).
		Str("userAgent", e.UserAgent)

	NewOptionalEvent(zerolog.Dict()).
		Str("client", e.ClientID).
		Strs("scopes", e.Scopes).
		BoolIf("cacheHit", e.CacheHit).
		Int64("expirySecs", e.ExpirySecs).
		Set(ev, "token")

	if e.Error != "" {
		ev.Str("error", e.Error)
	}
}

type auditKey struct{}

// Context returns a context carrying an audit entry, creating one when the
// context has none, along with the entry itself.
func Context(ctx context.Context) (context.Context, *Entry) {
	if entry, ok := ctx.Value(auditKey{}).(*Entry); ok {
		return ctx, entry
	}

	entry := &Entry{}
	return context.WithValue(ctx, auditKey{}, entry), entry
}

// Log returns the audit entry from the context, or a discarded entry when
// the middleware is not in the chain. Callers may enrich the returned entry
// unconditionally.
func Log(ctx context.Context) *Entry {
	_, entry := Context(ctx)
	return entry
}

// Begin captures the request attributes available before the handler runs.
func (e *Entry) Begin(r *http.Request) {
	e.Method = r.Method
	e.Path = r.URL.Path
	e.UserAgent = r.UserAgent()
	e.Status = http.StatusOK

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		e.SourceIP = host
	} else {
		e.SourceIP = r.RemoteAddr
	}
}

// End returns a func that writes the audit entry; defer it so the entry is
// written even when the handler panics. A panic is recorded on the entry and
// re-raised.
func (e *Entry) End(ctx context.Context) func() {
	return func() {
		if r := recover(); r != nil {
			if e.Error == "" {
				e.Error = fmt.Sprintf("panic: %v", r)
			} else {
				e.Error = fmt.Sprintf("%s; panic: %v", e.Error, r)
			}
			e.write(ctx)
			panic(r)
		}

		e.write(ctx)
	}
}

func (e *Entry) write(ctx context.Context) {
	log.Ctx(ctx).WithLevel(Level).EmbedObject(e).Msg("audit")
}

// statusWriter captures the response status for the audit entry.
type statusWriter struct {
	http.ResponseWriter
	entry *Entry
}

func (w *statusWriter) WriteHeader(status int) {
	w.entry.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Middleware attaches an audit entry to the request context and writes it
// when the request completes.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, entry := Context(r.Context())

			entry.Begin(r)
			defer entry.End(ctx)()

			next.ServeHTTP(
				&statusWriter{ResponseWriter: w, entry: entry},
				r.WithContext(ctx),
			)
		})
	}
}

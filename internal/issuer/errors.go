package issuer

import (
	"fmt"
	"net/http"
)

// ValidationError reports a malformed or incomplete token request. Always a
// client fault: nothing upstream or in the store has been touched when one is
// returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Status implements the handler error mapping.
func (e *ValidationError) Status() (int, string) {
	return http.StatusBadRequest, e.Message
}

// StoreUnavailableError reports that the persistence layer could not serve a
// lookup or write. It is surfaced distinctly from authorization failures so
// operators can tell "credentials bad" from "system degraded"; it is never
// silently downgraded to a cache miss.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("token store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Status implements the handler error mapping.
func (e *StoreUnavailableError) Status() (int, string) {
	return http.StatusServiceUnavailable, "token store unavailable"
}

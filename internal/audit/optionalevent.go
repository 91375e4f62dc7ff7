package audit

import (
	"github.com/rs/zerolog"
)

// OptionalEvent accumulates fields into a zerolog dictionary, tracking
// whether anything meaningful was added. Empty values are skipped, and the
// dictionary is only attached to the parent event when at least one field
// was set. Keeps audit output free of empty token sections on requests that
// never reached issuance.
type OptionalEvent struct {
	ev       *zerolog.Event
	modified bool
}

func NewOptionalEvent(e *zerolog.Event) *OptionalEvent {
	return &OptionalEvent{ev: e}
}

func (oe *OptionalEvent) event() *zerolog.Event {
	if oe.ev == nil {
		oe.ev = zerolog.Dict()
		oe.modified = false
	}
	return oe.ev
}

// Set attaches the accumulated dictionary to the parent event under the
// given key, if any field was added. Reports whether the attach happened.
func (oe *OptionalEvent) Set(parent *zerolog.Event, key string) bool {
	if oe.modified {
		parent.Dict(key, oe.event())
		return true
	}
	return false
}

func (oe *OptionalEvent) Str(key, val string) *OptionalEvent {
	if val == "" {
		return oe
	}
	oe.event().Str(key, val)
	oe.modified = true
	return oe
}

func (oe *OptionalEvent) Strs(key string, vals []string) *OptionalEvent {
	if len(vals) == 0 {
		return oe
	}
	oe.event().Strs(key, vals)
	oe.modified = true
	return oe
}

// BoolIf records the field only when true.
func (oe *OptionalEvent) BoolIf(key string, val bool) *OptionalEvent {
	if !val {
		return oe
	}
	oe.event().Bool(key, val)
	oe.modified = true
	return oe
}

func (oe *OptionalEvent) Int64(key string, val int64) *OptionalEvent {
	if val == 0 {
		return oe
	}
	oe.event().Int64(key, val)
	oe.modified = true
	return oe
}

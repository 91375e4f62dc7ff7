package testhelpers

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger routes global zerolog output through the test log for the
// duration of the test, restoring the previous loggers on cleanup.
func SetupLogger(t *testing.T) {
	t.Helper()

	previousGlobal := log.Logger
	previousContext := zerolog.DefaultContextLogger

	logger := zerolog.New(zerolog.NewTestWriter(t))
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	t.Cleanup(func() {
		log.Logger = previousGlobal
		zerolog.DefaultContextLogger = previousContext
	})
}

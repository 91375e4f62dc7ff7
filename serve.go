package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/supremecars/token-bridge/internal/config"
)

// serveHTTP runs the server until SIGINT/SIGTERM, then shuts down gracefully
// within the configured timeout. In-flight requests are allowed to complete;
// the shutdown hooks registered on the server run once listeners are closed.
func serveHTTP(cfg config.ServerConfig, server *http.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Msg("graceful shutdown timed out, closing server")
			return server.Close()
		}
		return err
	}

	log.Info().Msg("server shutdown complete")
	return nil
}

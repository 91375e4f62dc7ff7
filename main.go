package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/supremecars/token-bridge/internal/audit"
	"github.com/supremecars/token-bridge/internal/config"
	"github.com/supremecars/token-bridge/internal/identity"
	"github.com/supremecars/token-bridge/internal/issuer"
	"github.com/supremecars/token-bridge/internal/observe"
	"github.com/supremecars/token-bridge/internal/order"
	"github.com/supremecars/token-bridge/internal/server"
	"github.com/supremecars/token-bridge/internal/store"

	"github.com/justinas/alice"
)

func configureServerRoutes(ctx context.Context, cfg config.Config) (http.Handler, *store.Instrumented, error) {
	// wrap a mux such that HTTP telemetry is configured by default
	muxWithoutTelemetry := http.NewServeMux()
	mux := observe.NewMux(muxWithoutTelemetry)

	// configure middleware
	auditor := audit.Middleware()

	// The request body size is fairly limited to prevent accidental or
	// deliberate abuse. Given the current API shape, this is not configurable.
	requestLimitBytes := int64(20 << 10) // 20 KB
	requestLimiter := maxRequestSize(requestLimitBytes)

	routeMiddleware := alice.New(requestLimiter, auditor)
	standardRouteMiddleware := alice.New(requestLimiter)

	// setup the token issuance pipeline: provider client, store, service
	idp, err := identity.New(cfg.Identity)
	if err != nil {
		return nil, nil, fmt.Errorf("identity provider configuration failed: %w", err)
	}

	tokenStore, err := store.NewFromConfig(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("token store configuration failed: %w", err)
	}

	tokenIssuer := issuer.New(tokenStore, idp.Exchange)

	mux.Handle("POST /oauth/token", routeMiddleware.Then(handlePostToken(tokenIssuer.Issue)))

	// order workflow
	orders := order.NewService(orderStore(ctx, cfg.Orders))
	mux.Handle("POST /orders", routeMiddleware.Then(handlePostOrder(orders.Create)))

	// healthchecks are not included in telemetry
	muxWithoutTelemetry.Handle("GET /healthcheck", standardRouteMiddleware.Then(handleHealthCheck()))

	instrumented, _ := tokenStore.(*store.Instrumented)

	return mux, instrumented, nil
}

func main() {
	configureLogging()

	logBuildInfo()

	err := launchServer()
	if err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

func launchServer() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	// configure telemetry, including wrapping default HTTP client
	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}

	http.DefaultTransport = observe.HTTPTransport(
		configureHTTPTransport(cfg.Server),
		cfg.Observe,
	)
	http.DefaultClient = &http.Client{
		Transport: http.DefaultTransport,
	}

	// setup routing and dependencies
	handler, tokenStore, err := configureServerRoutes(ctx, cfg)
	if err != nil {
		return fmt.Errorf("server routing configuration failed: %w", err)
	}

	// start the server
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		MaxHeaderBytes:    20 << 10,         // 20 KB
		ReadHeaderTimeout: 20 * time.Second, // Prevent Slowloris attacks
	}

	var hooks server.ShutdownHooks
	if tokenStore != nil {
		hooks.Add("token store", tokenStore.Close)
	}
	hooks.AddContext("telemetry", shutdownTelemetry)

	err = serveHTTP(cfg.Server, httpServer)

	// run shutdown hooks whether or not the server terminated cleanly: the
	// store and telemetry pipeline may hold buffered state
	shutdownCtx, cancel := context.WithTimeout(ctx,
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	hooks.Execute(shutdownCtx)

	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// orderStore selects the order persistence target: the configured service
// table when present, otherwise in-process memory.
func orderStore(ctx context.Context, cfg config.OrdersConfig) order.Store {
	if cfg.TableName == "" {
		log.Info().Msg("orders: no service table configured, using in-memory store")
		return order.NewMemoryStore()
	}

	client, err := store.NewDynamoClient(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("orders: AWS configuration failed, using in-memory store")
		return order.NewMemoryStore()
	}

	log.Info().Str("table", cfg.TableName).Msg("orders: using service table")
	return order.NewDynamoStore(client, cfg.TableName)
}

func configureLogging() {
	// Set global level to the minimum: allows the Open Telemetry logging to be
	// configured separately. However, it means that any logger that sets its
	// level will log as this effectively disables the global level.
	zerolog.SetGlobalLevel(zerolog.Level(-128))

	// default level is Info
	log.Logger = log.Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}

func configureHTTPTransport(cfg config.ServerConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.OutgoingHTTPMaxIdleConns
	transport.MaxConnsPerHost = cfg.OutgoingHTTPMaxConnsPerHost

	return transport
}

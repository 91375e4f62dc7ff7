package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Identity IdentityConfig
	Observe  ObserveConfig
	Orders   OrdersConfig
	Server   ServerConfig
	Store    StoreConfig
}

type ServerConfig struct {
	Port                   int `env:"SERVER_PORT, default=8080"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`

	OutgoingHTTPMaxIdleConns    int `env:"SERVER_OUTGOING_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int `env:"SERVER_OUTGOING_MAX_CONNS_PER_HOST, default=20"`
}

// IdentityConfig specifies the upstream identity provider connection.
type IdentityConfig struct {
	// TokenEndpoint is the URL of the provider's client-credentials token
	// endpoint.
	TokenEndpoint string `env:"TOKEN_ENDPOINT, required"`

	// WAFHeaderName/WAFHeaderValue form the static anti-abuse header the
	// provider's edge protection requires. The pair is fixed per deployment
	// and is not derived from any client credential.
	WAFHeaderName  string `env:"IDP_WAF_HEADER_NAME"`
	WAFHeaderValue string `env:"IDP_WAF_HEADER_VALUE"`
}

// StoreConfig specifies token store configuration.
type StoreConfig struct {
	// Type selects the store implementation: "memory" (default), "dynamodb"
	// or "valkey".
	Type string `env:"STORE_TYPE, default=memory"`

	// TableName is the DynamoDB table holding cached tokens.
	TableName string `env:"TOKEN_TABLE_NAME"`

	// MemoryMaxSize bounds the in-memory store entry count.
	MemoryMaxSize int `env:"STORE_MEMORY_MAX_SIZE, default=10000"`

	// Valkey holds distributed store settings.
	Valkey ValkeyConfig
}

// ValkeyConfig specifies distributed store configuration.
type ValkeyConfig struct {
	// Address is the Valkey server address (host:port).
	Address string `env:"VALKEY_ADDRESS"`

	// TLS enables TLS connection to Valkey. Defaults to true so the secure
	// option is the default.
	TLS bool `env:"VALKEY_TLS, default=true"`

	// Username for Valkey authentication.
	Username string `env:"VALKEY_USERNAME"`

	// Password for Valkey authentication.
	Password string `env:"VALKEY_PASSWORD"`
}

// OrdersConfig specifies the order workflow's persistence target.
type OrdersConfig struct {
	// TableName is the DynamoDB table holding orders. When empty, orders are
	// held in memory (development only).
	TableName string `env:"SERVICE_TABLE_NAME"`
}

type ObserveConfig struct {
	SDKLogLevel                string `env:"OBSERVE_OTEL_LOG_LEVEL, default=info"`
	Enabled                    bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled             bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                       string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName                string `env:"OBSERVE_SERVICE_NAME, default=token-bridge"`
	TraceBatchTimeoutSeconds   int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds  int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled       bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
	HTTPConnectionTraceEnabled bool   `env:"OBSERVE_CONNECTION_TRACE_ENABLED, default=true"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	err = cfg.Identity.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid identity provider configuration: %w", err)
	}

	err = cfg.Store.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid store configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the identity provider configuration is consistent.
func (c *IdentityConfig) Validate() error {
	// The anti-abuse header is configured as a pair or not at all.
	if (c.WAFHeaderName == "") != (c.WAFHeaderValue == "") {
		return fmt.Errorf("IDP_WAF_HEADER_NAME and IDP_WAF_HEADER_VALUE must be set together")
	}

	return nil
}

// Validate checks that the store configuration is valid.
func (c *StoreConfig) Validate() error {
	switch c.Type {
	case "memory":
		// nothing further
	case "dynamodb":
		if c.TableName == "" {
			return fmt.Errorf("TOKEN_TABLE_NAME required when STORE_TYPE=dynamodb")
		}
	case "valkey":
		if c.Valkey.Address == "" {
			return fmt.Errorf("VALKEY_ADDRESS required when STORE_TYPE=valkey")
		}
	default:
		return fmt.Errorf("unknown store type: %q", c.Type)
	}

	return nil
}

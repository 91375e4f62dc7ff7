package store

import (
	"context"
	"crypto/tls"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog/log"
	"github.com/supremecars/token-bridge/internal/config"
	"github.com/valkey-io/valkey-go"
)

// NewFromConfig creates a token store implementation based on the provided
// configuration. It returns the store and any error encountered.
//
// The store type must be "memory", "dynamodb" or "valkey". Any other value
// returns an error.
func NewFromConfig(ctx context.Context, storeConfig config.StoreConfig) (TokenStore, error) {
	switch storeConfig.Type {
	case "dynamodb":
		log.Info().
			Str("store_type", "dynamodb").
			Str("table", storeConfig.TableName).
			Msg("initializing token store")

		if storeConfig.TableName == "" {
			return nil, fmt.Errorf("table name is required when store type is dynamodb")
		}

		client, err := NewDynamoClient(ctx)
		if err != nil {
			return nil, err
		}

		return NewInstrumented(NewDynamo(client, storeConfig.TableName), "dynamodb"), nil

	case "valkey":
		log.Info().
			Str("store_type", "valkey").
			Str("address", storeConfig.Valkey.Address).
			Bool("tls", storeConfig.Valkey.TLS).
			Msg("initializing token store")

		if storeConfig.Valkey.Address == "" {
			return nil, fmt.Errorf("valkey address is required when store type is valkey")
		}

		valkeyOpts := valkey.ClientOption{
			InitAddress: []string{storeConfig.Valkey.Address},
			AuthCredentialsFn: StaticCredentialsFn(
				storeConfig.Valkey.Username,
				storeConfig.Valkey.Password,
			),
		}

		if storeConfig.Valkey.TLS {
			valkeyOpts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		valkeyClient, err := valkey.NewClient(valkeyOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create valkey client: %w", err)
		}

		distributed, err := NewDistributed(valkeyClient)
		if err != nil {
			valkeyClient.Close()
			return nil, fmt.Errorf("failed to create distributed store: %w", err)
		}

		return NewInstrumented(distributed, "valkey"), nil

	case "memory":
		log.Info().
			Str("store_type", "memory").
			Msg("initializing token store")

		memory, err := NewMemory(storeConfig.MemoryMaxSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory store: %w", err)
		}

		return NewInstrumented(memory, "memory"), nil

	default:
		return nil, fmt.Errorf("unknown store type: %q (expected memory, dynamodb or valkey)", storeConfig.Type)
	}
}

// NewDynamoClient creates a DynamoDB client from the ambient AWS
// configuration (environment, shared config, instance role).
func NewDynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg), nil
}

// StaticCredentialsFn returns an AuthCredentialsFn that always returns the
// configured username and password.
func StaticCredentialsFn(username, password string) func(valkey.AuthCredentialsContext) (valkey.AuthCredentials, error) {
	return func(valkey.AuthCredentialsContext) (valkey.AuthCredentials, error) {
		return valkey.AuthCredentials{
			Username: username,
			Password: password,
		}, nil
	}
}

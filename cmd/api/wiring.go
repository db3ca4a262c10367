package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/config"
	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/gateway"
	"github.com/dafibh/spaces/spaces-backend/internal/repository/snapshot"
	"github.com/dafibh/spaces/spaces-backend/internal/repository/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// pinger is implemented by snapshot stores that talk to a server
type pinger interface {
	Ping(ctx context.Context) error
}

// initSnapshotStore opens the configured snapshot backend. The returned
// func releases its connections.
func initSnapshotStore(ctx context.Context, cfg *config.Config) (domain.SnapshotStore, func(), error) {
	noop := func() {}

	switch cfg.SnapshotBackend {
	case config.SnapshotFile:
		store, err := snapshot.NewFileStore(cfg.SnapshotFile)
		if err != nil {
			return nil, noop, err
		}
		log.Info().Str("path", cfg.SnapshotFile).Msg("Using file snapshot store")
		return store, noop, nil

	case config.SnapshotRedis:
		store, err := snapshot.NewRedisStore(cfg.RedisURL, cfg.SnapshotRedisKey)
		if err != nil {
			return nil, noop, err
		}
		log.Info().Str("key", cfg.SnapshotRedisKey).Msg("Using Redis snapshot store")
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Redis client")
			}
		}, nil

	case config.SnapshotPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ping database: %w", err)
		}
		store := snapshot.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		log.Info().Msg("Using Postgres snapshot store")
		return store, pool.Close, nil

	default:
		log.Warn().Msg("Using in-memory snapshot store, spaces are lost on restart")
		return snapshot.NewMemoryStore(), noop, nil
	}
}

// initGateways builds the remote API clients. A client whose base URL is
// unset is left nil, which the services treat as unavailable or local-only.
func initGateways(cfg *config.Config) (domain.ChatGateway, domain.SpaceGateway, error) {
	var chat domain.ChatGateway
	var space domain.SpaceGateway

	if cfg.ChatAPIURL != "" {
		client, err := gateway.NewChatClient(gateway.Config{BaseURL: cfg.ChatAPIURL, APIKey: cfg.ChatAPIKey, Timeout: cfg.GatewayTimeout})
		if err != nil {
			return nil, nil, fmt.Errorf("chat gateway: %w", err)
		}
		chat = client
	} else {
		log.Warn().Msg("CHAT_API_URL not set, chat replies use the fallback")
	}

	if cfg.SpaceAPIURL != "" {
		client, err := gateway.NewSpaceClient(gateway.Config{BaseURL: cfg.SpaceAPIURL, APIKey: cfg.SpaceAPIKey, Timeout: cfg.GatewayTimeout})
		if err != nil {
			return nil, nil, fmt.Errorf("space gateway: %w", err)
		}
		space = client
	} else {
		log.Warn().Msg("SPACE_API_URL not set, space mutations stay local")
	}

	return chat, space, nil
}

// initDocumentStorage returns nil when uploads are disabled
func initDocumentStorage(ctx context.Context, cfg *config.Config) (storage.DocumentStorage, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		s, err := storage.NewS3DocumentStorage(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Using S3 document storage")
		return s, nil
	case config.StorageMinIO:
		s, err := storage.NewMinIODocumentStorage(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		log.Info().Str("endpoint", cfg.MinIO.Endpoint).Msg("Using MinIO document storage")
		return s, nil
	default:
		log.Info().Msg("Document storage not configured, uploads disabled")
		return nil, nil
	}
}

// initNATS connects to NATS with reconnect logging
func initNATS(url string) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("spaces-backend"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	return nc, nil
}

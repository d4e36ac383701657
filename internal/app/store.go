package app

import (
	"context"
	"fmt"

	"github.com/orabank/digital-banking/internal/config"
	"github.com/orabank/digital-banking/internal/logger"
	"github.com/orabank/digital-banking/internal/repository"
	"github.com/orabank/digital-banking/internal/repository/inmemory"
	"github.com/orabank/digital-banking/internal/repository/mongostore"
)

// OpenStore returns the configured, freshly seeded store and a function that
// releases it.
func OpenStore(ctx context.Context, cfg config.Config) (repository.Store, func(context.Context) error, error) {
	log := logger.FromContext(ctx)

	switch cfg.StoreBackend {
	case config.StoreMongo:
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("OpenStore: %w", err)
		}

		repo := mongostore.NewRepository(mongostore.NewMongoProvider(client, cfg.MongoDatabase))
		if err := repo.Reset(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("OpenStore: %w", err)
		}

		log.Info().Str("database", cfg.MongoDatabase).Msg("Using MongoDB store")
		return repo, client.Disconnect, nil

	default:
		store, err := inmemory.NewSeededStore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("OpenStore: %w", err)
		}
		log.Info().Msg("Using in-memory store")
		return store, func(context.Context) error { return nil }, nil
	}
}

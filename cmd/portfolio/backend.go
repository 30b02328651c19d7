package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/baas/memstore"
	"portfolio-backend/internal/baas/rest"
	"portfolio-backend/internal/baas/sqlbackend"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/store"
)

// backend is the configured baas.Client plus whatever must be closed
// with it.
type backend struct {
	client baas.Client
	close  func() error
}

func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backend, error) {
	switch cfg.Backend.Driver {
	case config.DriverREST:
		client, err := rest.New(rest.Config{
			Endpoint:   cfg.REST.Endpoint,
			Project:    cfg.REST.Project,
			APIKey:     cfg.REST.APIKey,
			DatabaseID: cfg.REST.DatabaseID,
			Timeout:    cfg.REST.Timeout,
		})
		if err != nil {
			return nil, err
		}
		log.Info("using hosted backend", zap.String("endpoint", cfg.REST.Endpoint), zap.String("database", cfg.REST.DatabaseID))
		return &backend{client: client}, nil

	case config.DriverSQL:
		s, err := store.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := s.Bootstrap(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("bootstrap system tables: %w", err)
		}
		log.Info("using sql backend", zap.String("driver", cfg.Database.Driver), zap.String("name", cfg.Database.Name))
		return &backend{client: sqlbackend.New(s), close: s.Close}, nil

	case config.DriverMemory:
		log.Warn("using in-memory backend; content is lost on exit")
		return &backend{client: memstore.New()}, nil

	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}
}

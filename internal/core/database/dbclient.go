package db

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/docflow/internal/config"
	"github.com/markdave123-py/docflow/internal/core"
)

// NewClient picks the Postgres client when DATABASE_URL is set and falls back
// to the in-memory store otherwise. Production always requires Postgres.
func NewClient(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (core.DbClient, error) {
	if cfg.DatabaseURL != "" {
		client, err := NewDatabaseClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		log.Info("postgres store ready")
		return client, nil
	}
	if cfg.IsProduction() {
		return nil, fmt.Errorf("DATABASE_URL is required in production")
	}
	log.Warn("DATABASE_URL not set; using in-memory store")
	return NewMemoryClient(), nil
}

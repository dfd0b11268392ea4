// Package database persists mint history in SurrealDB.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/mintari/internal/config"
)

// NewDB connects, signs in and selects the namespace and database. The
// whole sequence is retried with exponential backoff.
func NewDB(ctx context.Context, cfg config.SurrealConfig) (*surrealdb.DB, error) {
	var db *surrealdb.DB
	err := NewRetryer(4).Retry(ctx, func() error {
		var err error
		db, err = connect(ctx, cfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Successfully signed in to SurrealDB", "ns", cfg.NS, "db", cfg.DB)
	return db, nil
}

func connect(ctx context.Context, cfg config.SurrealConfig) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
	}

	authData := &surrealdb.Auth{
		Username: cfg.User,
		Password: cfg.Pass,
	}
	if _, err = db.SignIn(ctx, authData); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	if err = db.Use(ctx, cfg.NS, cfg.DB); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/db: %w", err)
	}
	return db, nil
}

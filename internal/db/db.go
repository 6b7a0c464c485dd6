package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // The database driver

	"seat-notifier/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	crn    INTEGER PRIMARY KEY,
	emails TEXT[] NOT NULL DEFAULT '{}'
)`

// InitDB opens and pings the Postgres database at dbURL.
func InitDB(dbURL string) (*sqlx.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	conn, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Database connection established")
	return conn, nil
}

// EnsureSchema creates the subscriptions table if it does not exist yet.
func EnsureSchema(ctx context.Context, conn *sqlx.DB) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

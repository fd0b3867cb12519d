package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sales-forecast/internal/common/config"

	_ "github.com/lib/pq"
)

// Pinger is implemented by every backend client; the readiness probe pings each one.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PostgresClient wraps the SQL connection pool that serves the outlet table.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pool; the connection itself is established lazily.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

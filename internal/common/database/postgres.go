// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"mergington-activities/internal/common/config"
)

const createAuditTable = `CREATE TABLE IF NOT EXISTS enrollment_audit (
	id          UUID PRIMARY KEY,
	event_type  TEXT NOT NULL,
	activity    TEXT NOT NULL,
	email       TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
)`

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
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

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Exec executes a query that doesn't return rows
func (c *PostgresClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.DB.ExecContext(ctx, query, args...)
}

// EnsureAuditSchema creates the enrollment_audit table when it is missing.
func (c *PostgresClient) EnsureAuditSchema(ctx context.Context) error {
	if _, err := c.Exec(ctx, createAuditTable); err != nil {
		return fmt.Errorf("create enrollment_audit: %w", err)
	}
	return nil
}

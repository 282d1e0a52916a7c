package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	pq "github.com/lib/pq"
)

// OpenPostgres connects to PostgreSQL and runs migrations.
func OpenPostgres(ctx context.Context, connStr string) (*SQLRepo, error) {
	if strings.TrimSpace(connStr) == "" {
		return nil, fmt.Errorf("postgres: empty connection string")
	}
	// Reject malformed DSNs before opening a pool.
	if _, err := pq.NewConnector(connStr); err != nil {
		return nil, fmt.Errorf("postgres: invalid connection string: %w", err)
	}

	db, err := sqlx.Open(DriverPostgres, connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := RunMigrations(ctx, db, DriverPostgres); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLRepo{db: db, driver: DriverPostgres}, nil
}

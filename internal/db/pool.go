package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConfigured is returned by Init when no database settings are present
var ErrNotConfigured = errors.New("no database configuration")

// Pool is the global database connection pool; nil when running without an archive
var Pool *pgxpool.Pool

// Init initializes the database connection pool and creates the archive tables
func Init() error {
	databaseURL := databaseURLFromEnv(os.Getenv)
	if databaseURL == "" {
		// No database configured - this is OK, scans are simply not archived
		return ErrNotConfigured
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings optimized for PgBouncer
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return err
	}

	Pool = pool
	slog.Info("database connection pool initialized", "component", "db")
	return nil
}

// databaseURLFromEnv uses DATABASE_URL, or builds a URL from the DB_* variables
func databaseURLFromEnv(getenv func(string) string) string {
	if url := getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getenv("DB_HOST")
	port := getenv("DB_PORT")
	user := getenv("DB_USER")
	password := getenv("DB_PASSWORD")
	dbname := getenv("DB_NAME")

	if host == "" || user == "" || dbname == "" {
		return ""
	}
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname)
}

// Available reports whether runs are being archived
func Available() bool {
	return Pool != nil
}

// Ping checks the database for the health endpoint
func Ping(ctx context.Context) error {
	if Pool == nil {
		return ErrNotConfigured
	}
	return Pool.Ping(ctx)
}

// Close closes the database connection pool
func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
		slog.Info("database connection pool closed", "component", "db")
	}
}

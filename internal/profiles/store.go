// Package profiles stores per-user admin flags behind a small Store
// interface. Two SQL backends are supported: postgres via the pgx
// stdlib driver for production and sqlite for local development.
package profiles

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"edge-gatekeeper/internal/common/errors"
)

// Store answers admin lookups for the authorization gate.
type Store interface {
	// IsAdmin reports whether the user has the admin flag set.
	// Unknown users are not admins and not an error.
	IsAdmin(ctx context.Context, userID string) (bool, error)
	Health() error
	Close() error
}

// Config selects and configures a SQL backend.
type Config struct {
	Driver string // "pgx" or "sqlite3"
	DSN    string
}

// PostgresConfig builds a Config for a postgres backend.
func PostgresConfig(host string, port int, user, password, database, sslMode string) Config {
	if sslMode == "" {
		sslMode = "disable"
	}
	return Config{
		Driver: "pgx",
		DSN: fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, database, sslMode),
	}
}

// SQLiteConfig builds a Config for a sqlite backend.
func SQLiteConfig(path string) Config {
	return Config{Driver: "sqlite3", DSN: path}
}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured backend and ensures the profiles
// table exists.
func Open(config Config) (*SQLStore, error) {
	if config.Driver != "pgx" && config.Driver != "sqlite3" {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported profile store driver: %s", config.Driver))
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, errors.ConnectionError("failed to open profile store", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.ConnectionError("failed to ping profile store", err)
	}

	store := &SQLStore{db: db, driver: config.Driver}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE
		)`)
	if err != nil {
		return errors.InternalError("failed to migrate profiles table", err)
	}
	return nil
}

func (s *SQLStore) placeholder(n int) string {
	if s.driver == "pgx" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// IsAdmin looks up the admin flag for a user. A missing row or a NULL
// flag reads as false.
func (s *SQLStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	query := fmt.Sprintf("SELECT is_admin FROM profiles WHERE id = %s", s.placeholder(1))

	var isAdmin sql.NullBool
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&isAdmin)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.InternalError("failed to query profile", err)
	}

	return isAdmin.Valid && isAdmin.Bool, nil
}

// SetAdmin creates or updates a profile with the given admin flag.
func (s *SQLStore) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	query := fmt.Sprintf(`
		INSERT INTO profiles (id, is_admin) VALUES (%s, %s)
		ON CONFLICT (id) DO UPDATE SET is_admin = excluded.is_admin`,
		s.placeholder(1), s.placeholder(2))

	if _, err := s.db.ExecContext(ctx, query, userID, isAdmin); err != nil {
		return errors.InternalError("failed to upsert profile", err)
	}
	return nil
}

func (s *SQLStore) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return errors.ConnectionError("profile store health check failed", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

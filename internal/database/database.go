package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storefront/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL backend behind a Service
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// GooseDialect returns the goose dialect name for d
func (d Dialect) GooseDialect() string {
	if d == DialectSQLite {
		return "sqlite3"
	}
	return "postgres"
}

// Service exposes the shared database handle
type Service interface {
	DB() *sql.DB
	Dialect() Dialect
	Health() map[string]string
	Close() error
}

type service struct {
	db      *sql.DB
	dialect Dialect
}

// New opens the database selected by cfg.Driver
func New(cfg config.DatabaseConfig) (Service, error) {
	switch Dialect(strings.ToLower(cfg.Driver)) {
	case DialectPostgres:
		return openPostgres(cfg)
	case DialectSQLite, "":
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(cfg config.DatabaseConfig) (Service, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode, cfg.Schema)

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := pingWithTimeout(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &service{db: db, dialect: DialectPostgres}, nil
}

// OpenSQLite opens (creating if needed) a single-file SQLite store
func OpenSQLite(path string) (Service, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// A single connection serialises writers, which is what SQLite wants anyway.
	db.SetMaxOpenConns(1)

	if err := pingWithTimeout(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	return &service{db: db, dialect: DialectSQLite}, nil
}

func pingWithTimeout(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

func (s *service) DB() *sql.DB {
	return s.db
}

func (s *service) Dialect() Dialect {
	return s.dialect
}

// Health reports connectivity and pool statistics
func (s *service) Health() map[string]string {
	stats := make(map[string]string)

	if err := pingWithTimeout(s.db); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	dbStats := s.db.Stats()
	stats["status"] = "up"
	stats["dialect"] = string(s.dialect)
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)
	return stats
}

func (s *service) Close() error {
	return s.db.Close()
}

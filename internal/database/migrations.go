package database

import (
	"database/sql"
	"fmt"

	"storefront/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// RunMigrations executes all pending embedded migrations
func RunMigrations(db *sql.DB, dialect Dialect, logger *zap.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(zap.NewStdLog(logger.Named("goose")))

	if err := goose.SetDialect(dialect.GooseDialect()); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	logger.Info("Checking for pending migrations...", zap.String("dialect", string(dialect)))

	if err := goose.Up(db, "."); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// GetMigrationStatus prints the current migration status through the goose logger
func GetMigrationStatus(db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect.GooseDialect()); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.Status(db, ".")
}

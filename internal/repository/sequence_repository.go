package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/database"
)

// Sequence names of the id high-water marks
const (
	SequenceProducts  = "products"
	SequenceOrders    = "orders"
	SequenceCustomers = "customers"
)

// SequenceRepository persists the highest id ever assigned per collection
type SequenceRepository interface {
	Load(ctx context.Context, name string) (int, error)
	Save(ctx context.Context, name string, lastID int) error
}

type sequenceRepository struct {
	sqlStore
}

// NewSequenceRepository creates a new instance of SequenceRepository
func NewSequenceRepository(db *sql.DB, dialect database.Dialect) SequenceRepository {
	return &sequenceRepository{sqlStore{db: db, dialect: dialect}}
}

// Load returns the high-water mark for name, or 0 when none was recorded
func (r *sequenceRepository) Load(ctx context.Context, name string) (int, error) {
	var lastID int
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT last_id FROM id_sequences WHERE name = ?`), name).Scan(&lastID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load sequence %s: %w", name, err)
	}
	return lastID, nil
}

// Save records lastID as the high-water mark for name
func (r *sequenceRepository) Save(ctx context.Context, name string, lastID int) error {
	query := r.rebind(`
		INSERT INTO id_sequences (name, last_id)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET last_id = excluded.last_id
	`)

	if _, err := r.db.ExecContext(ctx, query, name, lastID); err != nil {
		return fmt.Errorf("failed to save sequence %s: %w", name, err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/database"
	"storefront/internal/domain"
)

// ProductRepository defines load-all/save-all access to the catalog
type ProductRepository interface {
	LoadAll(ctx context.Context) ([]domain.Product, error)
	SaveAll(ctx context.Context, products []domain.Product) error
}

type productRepository struct {
	sqlStore
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB, dialect database.Dialect) ProductRepository {
	return &productRepository{sqlStore{db: db, dialect: dialect}}
}

// LoadAll returns every product in catalog order
func (r *productRepository) LoadAll(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, description, price, image, status
		FROM products
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Price = domain.RoundPrice(p.Price)
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// SaveAll replaces the stored catalog with products, preserving their order
func (r *productRepository) SaveAll(ctx context.Context, products []domain.Product) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, r.rebind(`
			INSERT INTO products (id, position, name, description, price, image, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare product insert: %w", err)
		}
		defer stmt.Close()

		for i, p := range products {
			_, err := stmt.ExecContext(ctx, p.ID, i, p.Name, p.Description, p.Price, p.Image, string(p.Status))
			if err != nil {
				return fmt.Errorf("failed to save product %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

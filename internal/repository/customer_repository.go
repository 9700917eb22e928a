package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/database"
	"storefront/internal/domain"
)

// CustomerRepository defines load-all/save-all access to the customer directory
type CustomerRepository interface {
	LoadAll(ctx context.Context) ([]domain.Customer, error)
	SaveAll(ctx context.Context, customers []domain.Customer) error
}

type customerRepository struct {
	sqlStore
}

// NewCustomerRepository creates a new instance of CustomerRepository
func NewCustomerRepository(db *sql.DB, dialect database.Dialect) CustomerRepository {
	return &customerRepository{sqlStore{db: db, dialect: dialect}}
}

// LoadAll returns every customer in directory order with their order ids in placement order
func (r *customerRepository) LoadAll(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, phone, address
		FROM customers
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	index := make(map[int]int)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		c.Orders = []int{}
		index[c.ID] = len(customers)
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	links, err := r.db.QueryContext(ctx, `
		SELECT customer_id, order_id
		FROM customer_orders
		ORDER BY customer_id ASC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer orders: %w", err)
	}
	defer links.Close()

	for links.Next() {
		var customerID, orderID int
		if err := links.Scan(&customerID, &orderID); err != nil {
			return nil, fmt.Errorf("failed to scan customer order: %w", err)
		}
		if pos, ok := index[customerID]; ok {
			customers[pos].Orders = append(customers[pos].Orders, orderID)
		}
	}
	if err = links.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer orders: %w", err)
	}

	return customers, nil
}

// SaveAll replaces the stored directory with customers, preserving their order
func (r *customerRepository) SaveAll(ctx context.Context, customers []domain.Customer) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM customer_orders`); err != nil {
			return fmt.Errorf("failed to clear customer orders: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
			return fmt.Errorf("failed to clear customers: %w", err)
		}

		customerStmt, err := tx.PrepareContext(ctx, r.rebind(`
			INSERT INTO customers (id, position, name, email, phone, address)
			VALUES (?, ?, ?, ?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare customer insert: %w", err)
		}
		defer customerStmt.Close()

		linkStmt, err := tx.PrepareContext(ctx, r.rebind(`
			INSERT INTO customer_orders (customer_id, seq, order_id)
			VALUES (?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare customer order insert: %w", err)
		}
		defer linkStmt.Close()

		for i, c := range customers {
			if _, err := customerStmt.ExecContext(ctx, c.ID, i, c.Name, c.Email, c.Phone, c.Address); err != nil {
				return fmt.Errorf("failed to save customer %d: %w", c.ID, err)
			}
			for seq, orderID := range c.Orders {
				if _, err := linkStmt.ExecContext(ctx, c.ID, seq, orderID); err != nil {
					return fmt.Errorf("failed to link order %d to customer %d: %w", orderID, c.ID, err)
				}
			}
		}
		return nil
	})
}

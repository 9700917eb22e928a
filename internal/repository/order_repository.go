package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/database"
	"storefront/internal/domain"
)

// OrderRepository defines load-all/save-all access to the order ledger
type OrderRepository interface {
	LoadAll(ctx context.Context) ([]domain.Order, error)
	SaveAll(ctx context.Context, orders []domain.Order) error
}

type orderRepository struct {
	sqlStore
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB, dialect database.Dialect) OrderRepository {
	return &orderRepository{sqlStore{db: db, dialect: dialect}}
}

// LoadAll returns every order in ledger order (most recent first) with its line items
func (r *orderRepository) LoadAll(ctx context.Context) ([]domain.Order, error) {
	query := `
		SELECT id, buyer_name, buyer_email, buyer_phone, buyer_address, total, placed_at, status
		FROM orders
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	index := make(map[int]int)
	for rows.Next() {
		var (
			o        domain.Order
			placedAt any
		)
		err := rows.Scan(
			&o.ID,
			&o.Buyer.Name,
			&o.Buyer.Email,
			&o.Buyer.Phone,
			&o.Buyer.Address,
			&o.Total,
			&placedAt,
			&o.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if o.PlacedAt, err = toTime(placedAt); err != nil {
			return nil, fmt.Errorf("failed to parse placed_at of order %d: %w", o.ID, err)
		}
		o.Total = domain.RoundPrice(o.Total)
		o.Items = []domain.LineItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.loadItems(ctx, orders, index); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orders []domain.Order, index map[int]int) error {
	query := `
		SELECT order_id, product_id, name, description, price, image, quantity, subtotal
		FROM order_items
		ORDER BY order_id ASC, line_no ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int
			item    domain.LineItem
		)
		err := rows.Scan(
			&orderID,
			&item.ProductID,
			&item.Name,
			&item.Description,
			&item.Price,
			&item.Image,
			&item.Quantity,
			&item.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		pos, ok := index[orderID]
		if !ok {
			continue
		}
		item.Price = domain.RoundPrice(item.Price)
		item.Subtotal = domain.RoundPrice(item.Subtotal)
		orders[pos].Items = append(orders[pos].Items, item)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}

// SaveAll replaces the stored ledger with orders, preserving their order
func (r *orderRepository) SaveAll(ctx context.Context, orders []domain.Order) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items`); err != nil {
			return fmt.Errorf("failed to clear order items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
			return fmt.Errorf("failed to clear orders: %w", err)
		}

		orderStmt, err := tx.PrepareContext(ctx, r.rebind(`
			INSERT INTO orders (id, position, buyer_name, buyer_email, buyer_phone, buyer_address, total, placed_at, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare order insert: %w", err)
		}
		defer orderStmt.Close()

		itemStmt, err := tx.PrepareContext(ctx, r.rebind(`
			INSERT INTO order_items (order_id, line_no, product_id, name, description, price, image, quantity, subtotal)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare order item insert: %w", err)
		}
		defer itemStmt.Close()

		for i, o := range orders {
			_, err := orderStmt.ExecContext(
				ctx,
				o.ID,
				i,
				o.Buyer.Name,
				o.Buyer.Email,
				o.Buyer.Phone,
				o.Buyer.Address,
				o.Total,
				o.PlacedAt.UTC(),
				o.Status,
			)
			if err != nil {
				return fmt.Errorf("failed to save order %d: %w", o.ID, err)
			}

			for line, item := range o.Items {
				_, err := itemStmt.ExecContext(
					ctx,
					o.ID,
					line,
					item.ProductID,
					item.Name,
					item.Description,
					item.Price,
					item.Image,
					item.Quantity,
					item.Subtotal,
				)
				if err != nil {
					return fmt.Errorf("failed to save item %d of order %d: %w", line, o.ID, err)
				}
			}
		}
		return nil
	})
}

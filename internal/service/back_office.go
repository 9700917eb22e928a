package service

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

// DashboardStats summarises the store for the admin dashboard
type DashboardStats struct {
	TotalOrders    int `json:"total_orders"`
	TotalCustomers int `json:"total_customers"`
	TotalProducts  int `json:"total_products"`
}

// BackOffice groups admin operations that span more than one collection
type BackOffice interface {
	Dashboard(ctx context.Context) DashboardStats
	UpdateOrderStatus(ctx context.Context, id int, status string) (*domain.Order, error)
	CustomerWithOrders(ctx context.Context, id int) (*domain.Customer, []domain.Order, error)
}

type backOffice struct {
	catalog   Catalog
	ledger    OrderLedger
	directory CustomerDirectory
	notifier  Notifier
	logger    *zap.Logger
}

func NewBackOffice(
	catalog Catalog,
	ledger OrderLedger,
	directory CustomerDirectory,
	notifier Notifier,
	logger *zap.Logger,
) BackOffice {
	return &backOffice{
		catalog:   catalog,
		ledger:    ledger,
		directory: directory,
		notifier:  notifier,
		logger:    logger,
	}
}

func (b *backOffice) Dashboard(ctx context.Context) DashboardStats {
	return DashboardStats{
		TotalOrders:    b.ledger.Count(),
		TotalCustomers: b.directory.Count(),
		TotalProducts:  b.catalog.Count(),
	}
}

// UpdateOrderStatus sets a free-text status and tells the buyer about it
func (b *backOffice) UpdateOrderStatus(ctx context.Context, id int, status string) (*domain.Order, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, &domain.ValidationError{Field: "status", Message: "status is required"}
	}

	order, err := b.ledger.UpdateStatus(ctx, id, status)
	if err != nil {
		return order, err
	}

	if !b.notifier.Enqueue(statusUpdatedMessage(order)) {
		b.logger.Warn("Status update mail not queued", zap.Int("order_id", id))
	}
	return order, nil
}

// CustomerWithOrders resolves a customer's order ids in list order, skipping ids that no longer resolve
func (b *backOffice) CustomerWithOrders(ctx context.Context, id int) (*domain.Customer, []domain.Order, error) {
	customer, err := b.directory.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	orders := make([]domain.Order, 0, len(customer.Orders))
	for _, orderID := range customer.Orders {
		order, err := b.ledger.GetByID(ctx, orderID)
		if errors.Is(err, domain.ErrNotFound) {
			b.logger.Debug("Customer references unknown order",
				zap.Int("customer_id", id),
				zap.Int("order_id", orderID),
			)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		orders = append(orders, *order)
	}
	return customer, orders, nil
}

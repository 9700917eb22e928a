package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// OrderLedger defines the interface for the order collection, newest first
type OrderLedger interface {
	Add(ctx context.Context, buyer domain.BuyerInfo, items []domain.LineItem) (*domain.Order, error)
	GetAll(ctx context.Context) []domain.Order
	GetByID(ctx context.Context, id int) (*domain.Order, error)
	GetByEmail(ctx context.Context, email string) []domain.Order
	UpdateStatus(ctx context.Context, id int, status string) (*domain.Order, error)
	Count() int
}

type orderLedger struct {
	mu      sync.RWMutex
	orders  []domain.Order
	seq     *idSequence
	repo    repository.OrderRepository
	persist persister
	now     func() time.Time
	logger  *zap.Logger
}

// NewOrderLedger loads the order collection from storage
func NewOrderLedger(
	ctx context.Context,
	repo repository.OrderRepository,
	sequences repository.SequenceRepository,
	maxRetries int,
	logger *zap.Logger,
) (OrderLedger, error) {
	orders, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	seq, err := loadSequence(ctx, sequences, repository.SequenceOrders, maxOrderID(orders))
	if err != nil {
		return nil, err
	}

	logger.Info("Order ledger loaded", zap.Int("count", len(orders)))

	return &orderLedger{
		orders:  orders,
		seq:     seq,
		repo:    repo,
		persist: persister{collection: "orders", maxRetries: maxRetries, logger: logger},
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Add places a pending order at the front of the ledger
func (l *orderLedger) Add(ctx context.Context, buyer domain.BuyerInfo, items []domain.LineItem) (*domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.seq.next(maxOrderID(l.orders))
	order := domain.NewOrder(id, buyer, items, l.now().UTC().Truncate(time.Second))

	l.orders = append([]domain.Order{*order}, l.orders...)
	l.logger.Info("Order placed",
		zap.Int("order_id", id),
		zap.String("email", buyer.Email),
		zap.String("total", order.Total.StringFixed(2)),
	)

	placed := cloneOrder(*order)
	if err := l.save(ctx, "add", id); err != nil {
		return &placed, err
	}
	return &placed, nil
}

// GetAll returns every order, newest first
func (l *orderLedger) GetAll(ctx context.Context) []domain.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Order, len(l.orders))
	for i := range l.orders {
		out[i] = cloneOrder(l.orders[i])
	}
	return out
}

func (l *orderLedger) GetByID(ctx context.Context, id int) (*domain.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.indexOf(id)
	if i < 0 {
		return nil, domain.ErrOrderNotFound
	}
	order := cloneOrder(l.orders[i])
	return &order, nil
}

// GetByEmail returns the orders placed with email, ignoring case, newest first
func (l *orderLedger) GetByEmail(ctx context.Context, email string) []domain.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.Order
	for i := range l.orders {
		if l.orders[i].PlacedBy(email) {
			out = append(out, cloneOrder(l.orders[i]))
		}
	}
	return out
}

// UpdateStatus replaces the status of an order. Nothing else about the order changes.
func (l *orderLedger) UpdateStatus(ctx context.Context, id int, status string) (*domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return nil, domain.ErrOrderNotFound
	}

	previous := l.orders[i].Status
	l.orders[i].Status = status
	l.logger.Info("Order status updated",
		zap.Int("order_id", id),
		zap.String("from", previous),
		zap.String("to", status),
	)

	updated := cloneOrder(l.orders[i])
	if err := l.save(ctx, "update_status", 0); err != nil {
		return &updated, err
	}
	return &updated, nil
}

func (l *orderLedger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders)
}

func (l *orderLedger) save(ctx context.Context, op string, usedID int) error {
	snapshot := make([]domain.Order, len(l.orders))
	for i := range l.orders {
		snapshot[i] = cloneOrder(l.orders[i])
	}

	return l.persist.save(ctx, op, func(ctx context.Context) error {
		if err := l.repo.SaveAll(ctx, snapshot); err != nil {
			return err
		}
		if usedID > 0 {
			return l.seq.commit(ctx, usedID)
		}
		return nil
	})
}

func (l *orderLedger) indexOf(id int) int {
	for i := range l.orders {
		if l.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneOrder(o domain.Order) domain.Order {
	items := make([]domain.LineItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

func maxOrderID(orders []domain.Order) int {
	highest := 0
	for _, o := range orders {
		highest = max(highest, o.ID)
	}
	return highest
}

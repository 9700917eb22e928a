package service

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// CustomerDirectory defines the interface for the customer collection.
// There is at most one customer per email, compared case-insensitively.
type CustomerDirectory interface {
	GetAll(ctx context.Context) []domain.Customer
	GetByID(ctx context.Context, id int) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	Upsert(ctx context.Context, buyer domain.BuyerInfo, orderID int) (*domain.Customer, error)
	Count() int
}

type customerDirectory struct {
	mu        sync.RWMutex
	customers []domain.Customer
	seq       *idSequence
	repo      repository.CustomerRepository
	persist   persister
	logger    *zap.Logger
}

// NewCustomerDirectory loads the customer collection from storage
func NewCustomerDirectory(
	ctx context.Context,
	repo repository.CustomerRepository,
	sequences repository.SequenceRepository,
	maxRetries int,
	logger *zap.Logger,
) (CustomerDirectory, error) {
	customers, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	seq, err := loadSequence(ctx, sequences, repository.SequenceCustomers, maxCustomerID(customers))
	if err != nil {
		return nil, err
	}

	logger.Info("Customer directory loaded", zap.Int("count", len(customers)))

	return &customerDirectory{
		customers: customers,
		seq:       seq,
		repo:      repo,
		persist:   persister{collection: "customers", maxRetries: maxRetries, logger: logger},
		logger:    logger,
	}, nil
}

// GetAll returns every customer, newest first
func (d *customerDirectory) GetAll(ctx context.Context) []domain.Customer {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.Customer, len(d.customers))
	for i := range d.customers {
		out[i] = cloneCustomer(d.customers[i])
	}
	return out
}

func (d *customerDirectory) GetByID(ctx context.Context, id int) (*domain.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for i := range d.customers {
		if d.customers[i].ID == id {
			c := cloneCustomer(d.customers[i])
			return &c, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (d *customerDirectory) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	i := d.indexOfEmail(email)
	if i < 0 {
		return nil, domain.ErrCustomerNotFound
	}
	c := cloneCustomer(d.customers[i])
	return &c, nil
}

// Upsert links orderID to the customer with the buyer's email, creating the customer
// at the front of the directory when the email is new. An existing customer keeps the
// contact details from their first order.
func (d *customerDirectory) Upsert(ctx context.Context, buyer domain.BuyerInfo, orderID int) (*domain.Customer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		customer domain.Customer
		usedID   int
	)
	if i := d.indexOfEmail(buyer.Email); i >= 0 {
		d.customers[i].AddOrder(orderID)
		customer = cloneCustomer(d.customers[i])
		d.logger.Debug("Order linked to existing customer",
			zap.Int("customer_id", customer.ID),
			zap.Int("order_id", orderID),
		)
	} else {
		usedID = d.seq.next(maxCustomerID(d.customers))
		created := domain.NewCustomer(usedID, buyer, orderID)
		d.customers = append([]domain.Customer{*created}, d.customers...)
		customer = cloneCustomer(*created)
		d.logger.Info("Customer created",
			zap.Int("customer_id", usedID),
			zap.String("email", buyer.Email),
		)
	}

	if err := d.save(ctx, "upsert", usedID); err != nil {
		return &customer, err
	}
	return &customer, nil
}

func (d *customerDirectory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.customers)
}

func (d *customerDirectory) save(ctx context.Context, op string, usedID int) error {
	snapshot := make([]domain.Customer, len(d.customers))
	for i := range d.customers {
		snapshot[i] = cloneCustomer(d.customers[i])
	}

	return d.persist.save(ctx, op, func(ctx context.Context) error {
		if err := d.repo.SaveAll(ctx, snapshot); err != nil {
			return err
		}
		if usedID > 0 {
			return d.seq.commit(ctx, usedID)
		}
		return nil
	})
}

func (d *customerDirectory) indexOfEmail(email string) int {
	for i := range d.customers {
		if d.customers[i].Matches(email) {
			return i
		}
	}
	return -1
}

func cloneCustomer(c domain.Customer) domain.Customer {
	orders := make([]int, len(c.Orders))
	copy(orders, c.Orders)
	c.Orders = orders
	return c
}

func maxCustomerID(customers []domain.Customer) int {
	highest := 0
	for _, c := range customers {
		highest = max(highest, c.ID)
	}
	return highest
}

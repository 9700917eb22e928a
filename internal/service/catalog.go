package service

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// Catalog defines the interface for the product collection
type Catalog interface {
	GetAll(ctx context.Context) []domain.Product
	Get(ctx context.Context, id int) (*domain.Product, error)
	Add(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id int) error
	ToggleStatus(ctx context.Context, id int) (*domain.Product, error)
	Count() int
}

type catalog struct {
	mu       sync.RWMutex
	products []domain.Product
	seq      *idSequence
	repo     repository.ProductRepository
	persist  persister
	logger   *zap.Logger
}

// NewCatalog loads the product collection from storage
func NewCatalog(
	ctx context.Context,
	repo repository.ProductRepository,
	sequences repository.SequenceRepository,
	maxRetries int,
	logger *zap.Logger,
) (Catalog, error) {
	products, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	seq, err := loadSequence(ctx, sequences, repository.SequenceProducts, maxProductID(products))
	if err != nil {
		return nil, err
	}

	logger.Info("Product catalog loaded", zap.Int("count", len(products)))

	return &catalog{
		products: products,
		seq:      seq,
		repo:     repo,
		persist:  persister{collection: "products", maxRetries: maxRetries, logger: logger},
		logger:   logger,
	}, nil
}

// GetAll returns the products in catalog order
func (c *catalog) GetAll(ctx context.Context) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the product with the given id
func (c *catalog) Get(ctx context.Context, id int) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil, domain.ErrProductNotFound
	}
	p := c.products[i]
	return &p, nil
}

// Add appends a new available product with a fresh id
func (c *catalog) Add(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.seq.next(maxProductID(c.products))
	product, err := domain.NewProduct(id, in)
	if err != nil {
		return nil, err
	}

	c.products = append(c.products, *product)
	c.logger.Info("Product added", zap.Int("product_id", id), zap.String("name", product.Name))

	if err := c.save(ctx, "add", id); err != nil {
		return product, err
	}
	return product, nil
}

// Update merges patch into the product and persists the collection
func (c *catalog) Update(ctx context.Context, id int, patch domain.ProductPatch) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil, domain.ErrProductNotFound
	}
	if err := c.products[i].Apply(patch); err != nil {
		return nil, err
	}

	updated := c.products[i]
	if err := c.save(ctx, "update", 0); err != nil {
		return &updated, err
	}
	return &updated, nil
}

// Delete removes the product. Its id is never handed out again.
func (c *catalog) Delete(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return domain.ErrProductNotFound
	}

	c.products = append(c.products[:i:i], c.products[i+1:]...)
	c.logger.Info("Product deleted", zap.Int("product_id", id))

	return c.save(ctx, "delete", id)
}

// ToggleStatus flips the product between available and out-of-stock
func (c *catalog) ToggleStatus(ctx context.Context, id int) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil, domain.ErrProductNotFound
	}
	c.products[i].Status = c.products[i].Status.Toggled()

	toggled := c.products[i]
	if err := c.save(ctx, "toggle", 0); err != nil {
		return &toggled, err
	}
	return &toggled, nil
}

func (c *catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// save must be called with the write lock held. A non-zero usedID advances the id high-water mark.
func (c *catalog) save(ctx context.Context, op string, usedID int) error {
	snapshot := make([]domain.Product, len(c.products))
	copy(snapshot, c.products)

	return c.persist.save(ctx, op, func(ctx context.Context) error {
		if err := c.repo.SaveAll(ctx, snapshot); err != nil {
			return err
		}
		if usedID > 0 {
			return c.seq.commit(ctx, usedID)
		}
		return nil
	})
}

func (c *catalog) indexOf(id int) int {
	for i := range c.products {
		if c.products[i].ID == id {
			return i
		}
	}
	return -1
}

func maxProductID(products []domain.Product) int {
	highest := 0
	for _, p := range products {
		highest = max(highest, p.ID)
	}
	return highest
}

package domain

import (
	"github.com/shopspring/decimal"
)

// ProductStatus is the admin-set availability flag of a product
type ProductStatus string

const (
	ProductAvailable  ProductStatus = "available"
	ProductOutOfStock ProductStatus = "out-of-stock"
)

// Toggled returns the opposite availability status
func (s ProductStatus) Toggled() ProductStatus {
	if s == ProductOutOfStock {
		return ProductAvailable
	}
	return ProductOutOfStock
}

// Valid reports whether s is one of the known statuses
func (s ProductStatus) Valid() bool {
	return s == ProductAvailable || s == ProductOutOfStock
}

// Product represents a sellable item in the catalog
type Product struct {
	ID          int             `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Image       string          `json:"image" db:"image"`
	Status      ProductStatus   `json:"status" db:"status"`
}

// ProductInput carries the fields an admin submits when creating a product
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
}

// ProductPatch carries a partial product update; nil fields keep their current value
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *string
	Status      *ProductStatus
}

// NewProduct builds an available product with the given id
func NewProduct(id int, in ProductInput) (*Product, error) {
	if in.Price.IsNegative() {
		return nil, &ValidationError{Field: "price", Message: "price must not be negative"}
	}
	return &Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		Status:      ProductAvailable,
	}, nil
}

// Apply merges patch into p. The product is left untouched when the patch is invalid.
func (p *Product) Apply(patch ProductPatch) error {
	if patch.Price != nil && patch.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "price must not be negative"}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return &ValidationError{Field: "status", Message: "status must be available or out-of-stock"}
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	return nil
}

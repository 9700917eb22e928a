package service

import (
	"context"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// CartDetails is a cart priced against the live catalog
type CartDetails struct {
	Items         []domain.LineItem `json:"items"`
	Total         decimal.Decimal   `json:"total"`
	TotalQuantity int               `json:"total_qty"`
}

// IsEmpty reports whether no cart entry resolved to a product
func (d CartDetails) IsEmpty() bool {
	return len(d.Items) == 0
}

// CartService prices session carts. Entries whose product has been deleted are left
// in the cart but excluded from every priced view.
type CartService interface {
	Totals(ctx context.Context, cart *domain.Cart) (decimal.Decimal, int)
	BuildDetails(ctx context.Context, cart *domain.Cart) CartDetails
}

type cartService struct {
	catalog Catalog
}

func NewCartService(catalog Catalog) CartService {
	return &cartService{catalog: catalog}
}

func (s *cartService) Totals(ctx context.Context, cart *domain.Cart) (decimal.Decimal, int) {
	details := s.BuildDetails(ctx, cart)
	return details.Total, details.TotalQuantity
}

// BuildDetails materialises line items in catalog order, not cart insertion order
func (s *cartService) BuildDetails(ctx context.Context, cart *domain.Cart) CartDetails {
	details := CartDetails{Items: []domain.LineItem{}, Total: decimal.Zero}
	if cart == nil || cart.IsEmpty() {
		return details
	}

	total := decimal.Zero
	for _, product := range s.catalog.GetAll(ctx) {
		qty := cart.Quantity(domain.ProductKey(product.ID))
		if qty <= 0 {
			continue
		}
		item := domain.NewLineItem(product, qty)
		details.Items = append(details.Items, item)
		total = total.Add(item.Subtotal)
		details.TotalQuantity += qty
	}
	details.Total = domain.RoundPrice(total)
	return details
}

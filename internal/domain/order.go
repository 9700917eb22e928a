package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusPending is the status every order is placed with.
// Admins may replace it with any free-text status afterwards.
const OrderStatusPending = "Pending"

// BuyerInfo holds the contact details captured on the checkout form. Only presence is
// checked; the values are kept exactly as submitted.
type BuyerInfo struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// EmailKey returns the case-insensitive identity key of the buyer
func (b BuyerInfo) EmailKey() string {
	return NormalizeEmail(b.Email)
}

// NormalizeEmail lower-cases an email for case-insensitive comparison
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LineItem is a priced snapshot of one product's quantity within a cart or order
type LineItem struct {
	ProductID   int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// NewLineItem prices quantity units of p
func NewLineItem(p Product, quantity int) LineItem {
	return LineItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Quantity:    quantity,
		Subtotal:    RoundPrice(p.Price.Mul(decimal.NewFromInt(int64(quantity)))),
	}
}

// Order is a placed order. Everything except Status is frozen at checkout.
type Order struct {
	ID       int             `json:"id"`
	Buyer    BuyerInfo       `json:"user"`
	Items    []LineItem      `json:"items"`
	Total    decimal.Decimal `json:"total"`
	PlacedAt time.Time       `json:"datetime"`
	Status   string          `json:"status"`
}

// NewOrder builds a pending order; the total is the rounded sum of item subtotals
func NewOrder(id int, buyer BuyerInfo, items []LineItem, placedAt time.Time) *Order {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}

	frozen := make([]LineItem, len(items))
	copy(frozen, items)

	return &Order{
		ID:       id,
		Buyer:    buyer,
		Items:    frozen,
		Total:    RoundPrice(total),
		PlacedAt: placedAt,
		Status:   OrderStatusPending,
	}
}

// PlacedBy reports whether the order was placed with the given email, ignoring case
func (o *Order) PlacedBy(email string) bool {
	return o.Buyer.EmailKey() == NormalizeEmail(email)
}

package domain

import (
	"encoding/json"
	"strconv"
)

// CartAction is the direction of a cart quantity update
type CartAction string

const (
	CartIncrease CartAction = "increase"
	CartDecrease CartAction = "decrease"
)

// Cart maps product ids (as strings) to quantities for one visitor session.
// No entry ever holds a quantity below one.
type Cart struct {
	items    map[string]int
	modified bool
}

// NewCart returns an empty cart
func NewCart() *Cart {
	return &Cart{items: make(map[string]int)}
}

// ProductKey converts a product id into a cart key
func ProductKey(id int) string {
	return strconv.Itoa(id)
}

// Items returns a copy of the current entries
func (c *Cart) Items() map[string]int {
	out := make(map[string]int, len(c.items))
	for k, v := range c.items {
		out[k] = v
	}
	return out
}

// Quantity returns the quantity held for productID, or 0 when absent
func (c *Cart) Quantity(productID string) int {
	return c.items[productID]
}

// Len returns the number of distinct entries
func (c *Cart) Len() int {
	return len(c.items)
}

// IsEmpty reports whether the cart has no entries
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// TotalQuantity sums all quantities, including entries whose product no longer exists
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, qty := range c.items {
		total += qty
	}
	return total
}

// Add increments the quantity of productID by one
func (c *Cart) Add(productID string) {
	c.items[productID]++
	c.modified = true
}

// Update applies action to productID. Decrease floors at one and never creates an entry.
func (c *Cart) Update(productID string, action CartAction) error {
	switch action {
	case CartIncrease:
		c.items[productID]++
	case CartDecrease:
		qty, ok := c.items[productID]
		if !ok {
			break
		}
		c.items[productID] = max(1, qty-1)
	default:
		return ErrInvalidAction
	}
	c.modified = true
	return nil
}

// Remove deletes the entry for productID if present
func (c *Cart) Remove(productID string) {
	if _, ok := c.items[productID]; ok {
		delete(c.items, productID)
		c.modified = true
	}
}

// Clear discards every entry
func (c *Cart) Clear() {
	c.items = make(map[string]int)
	c.modified = true
}

// Modified reports whether the cart changed since it was loaded
func (c *Cart) Modified() bool {
	return c.modified
}

// MarkClean resets the modification flag after the cart was stored
func (c *Cart) MarkClean() {
	c.modified = false
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.items)
}

// UnmarshalJSON restores a cart, dropping entries that violate the quantity floor
func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.items = make(map[string]int, len(raw))
	for k, v := range raw {
		if v >= 1 {
			c.items[k] = v
		}
	}
	c.modified = false
	return nil
}

// cartstore/cart.go

package cartstore

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Product describes what a caller asks to put in the cart.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// LineItem is one product entry in the cart with its aggregated quantity.
type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// Cart is an ordered collection of line items, at most one per product id.
// The first product added stays first; incrementing an existing entry does
// not move it. A Cart is not safe for concurrent use.
type Cart struct {
	items []LineItem
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// MaxLineQuantity caps the quantity of a single line item.
const MaxLineQuantity = 999

// Validate reports whether product and quantity are acceptable for Add.
func Validate(product Product, quantity int) error {
	if product.ID == "" {
		return invalid(ErrMsgProductIDRequired)
	}
	if product.Name == "" {
		return invalid(ErrMsgProductNameRequired)
	}
	if product.Price.IsNegative() {
		return invalid(ErrMsgPriceNegative)
	}
	if quantity < 1 {
		return errors.Wrapf(ErrInvalidInput, "%s (got %d)", ErrMsgQuantityPositive, quantity)
	}
	if quantity > MaxLineQuantity {
		return errors.Wrapf(ErrInvalidInput, "%s (got %d, max %d)", ErrMsgQuantityTooLarge, quantity, MaxLineQuantity)
	}
	return nil
}

// Add merges quantity units of product into the cart and returns the
// resulting entry. When an entry with the same id already exists only its
// quantity changes; the name, price and image given here are discarded.
func (c *Cart) Add(product Product, quantity int) (LineItem, error) {
	if err := Validate(product, quantity); err != nil {
		return LineItem{}, err
	}

	for i := range c.items {
		if c.items[i].ID == product.ID {
			if quantity > MaxLineQuantity-c.items[i].Quantity {
				return LineItem{}, errors.Wrapf(ErrInvalidInput, "%s (have %d, adding %d, max %d)",
					ErrMsgQuantityTooLarge, c.items[i].Quantity, quantity, MaxLineQuantity)
			}
			c.items[i].Quantity += quantity
			return c.items[i], nil
		}
	}

	item := LineItem{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Image:    product.Image,
		Quantity: quantity,
	}
	c.items = append(c.items, item)
	return item, nil
}

// Remove deletes the entry for id. Unknown ids are ignored.
func (c *Cart) Remove(id string) bool {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the entries in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct products.
func (c *Cart) Len() int {
	return len(c.items)
}

// ItemCount returns the sum of quantities, as shown on the navbar badge.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

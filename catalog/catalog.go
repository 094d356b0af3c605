// catalog/catalog.go

package catalog

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/Abh1nav004/Really/cartstore"
)

// ErrProductNotFound is returned by Get for an unknown id.
var ErrProductNotFound = errors.New("product not found")

// Product is a catalog entry.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

// CartProduct returns the descriptor the cart store accepts.
func (p Product) CartProduct() cartstore.Product {
	return cartstore.Product{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
}

// Catalog is an immutable product list.
type Catalog struct {
	products []Product
	byID     map[string]int
}

// New builds a Catalog over products. Later duplicates of an id are ignored.
func New(products []Product) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(products))}
	for _, p := range products {
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// Default returns the storefront's collection.
func Default() *Catalog {
	return New([]Product{
		{
			ID:          "1",
			Name:        "Premium Black Hoodie",
			Price:       decimal.RequireFromString("89.99"),
			Image:       "https://images.unsplash.com/photo-1620799140408-edc6dcb6d633",
			Description: "Heavyweight cotton with custom embroidery",
		},
		{
			ID:          "2",
			Name:        "Graphic Signature Tee",
			Price:       decimal.RequireFromString("49.99"),
			Image:       "https://images.unsplash.com/photo-1576566588028-4147f3842f27",
			Description: "Limited edition screen print",
		},
		{
			ID:          "3",
			Name:        "Oversized Denim Jacket",
			Price:       decimal.RequireFromString("129.99"),
			Image:       "https://images.unsplash.com/photo-1591047139829-d91aecb6caea",
			Description: "Vintage wash with custom hardware",
		},
		{
			ID:          "4",
			Name:        "Minimalist Sweatpants",
			Price:       decimal.RequireFromString("69.99"),
			Image:       "https://images.unsplash.com/photo-1527719327859-c6ce80353573",
			Description: "Premium french terry fabric",
		},
	})
}

// List returns all products in catalog order.
func (c *Catalog) List() []Product {
	return append([]Product(nil), c.products...)
}

// Get looks a product up by id.
func (c *Catalog) Get(id string) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, errors.Wrapf(ErrProductNotFound, "id %q", id)
	}
	return c.products[i], nil
}

// Search returns the products whose name or description contains query,
// ignoring case. A blank query matches everything.
func (c *Catalog) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.List()
	}
	var out []Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}

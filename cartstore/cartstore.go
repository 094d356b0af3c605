// cartstore/cartstore.go

package cartstore

import (
	"context"
)

// CartStore defines operations on the per-session carts.
type CartStore interface {
	Initialize(ctx context.Context) error

	AddItem(ctx context.Context, sessionID string, product Product, quantity int) error
	RemoveItem(ctx context.Context, sessionID, productID string) error
	EmptyCart(ctx context.Context, sessionID string) error
	GetCart(ctx context.Context, sessionID string) ([]LineItem, error)
	ItemCount(ctx context.Context, sessionID string) (int, error)

	Ping(ctx context.Context) bool
}

// Observer is notified after an item was added to a session's cart.
type Observer interface {
	ItemAdded(ctx context.Context, sessionID string, item LineItem)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, sessionID string, item LineItem)

// ItemAdded calls f.
func (f ObserverFunc) ItemAdded(ctx context.Context, sessionID string, item LineItem) {
	f(ctx, sessionID, item)
}

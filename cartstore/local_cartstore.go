// cartstore/local_cartstore.go

package cartstore

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// LocalCartStore keeps one cart per session in memory. Carts live as long
// as the process; nothing is persisted.
type LocalCartStore struct {
	mu    sync.RWMutex
	store map[string]*Cart

	obsMu     sync.RWMutex
	observers []Observer

	log logrus.FieldLogger
}

// NewLocalCartStore constructor
func NewLocalCartStore(log logrus.FieldLogger) *LocalCartStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LocalCartStore{
		store: make(map[string]*Cart),
		log:   log.WithField("component", "cartstore"),
	}
}

// Initialize does nothing for the in-memory store.
func (l *LocalCartStore) Initialize(ctx context.Context) error {
	l.log.Info("LocalCartStore initialized")
	return nil
}

// Subscribe registers an observer for successful adds.
func (l *LocalCartStore) Subscribe(o Observer) {
	l.obsMu.Lock()
	defer l.obsMu.Unlock()
	l.observers = append(l.observers, o)
}

// AddItem adds a product to the session's cart, merging by product id.
// Observers run after the store lock is released.
func (l *LocalCartStore) AddItem(ctx context.Context, sessionID string, product Product, quantity int) error {
	l.log.WithFields(logrus.Fields{
		"session":  sessionID,
		"product":  product.ID,
		"quantity": quantity,
	}).Debug("AddItem called")

	if sessionID == "" {
		return invalid(ErrMsgSessionRequired)
	}

	l.mu.Lock()
	cart, exists := l.store[sessionID]
	if !exists {
		cart = NewCart()
	}
	item, err := cart.Add(product, quantity)
	if err == nil && !exists {
		l.store[sessionID] = cart
	}
	l.mu.Unlock()

	if err != nil {
		return err
	}

	l.obsMu.RLock()
	observers := append([]Observer(nil), l.observers...)
	l.obsMu.RUnlock()
	for _, o := range observers {
		o.ItemAdded(ctx, sessionID, item)
	}
	return nil
}

// RemoveItem removes a product from the session's cart. Unknown sessions
// and products are a no-op.
func (l *LocalCartStore) RemoveItem(ctx context.Context, sessionID, productID string) error {
	l.log.WithFields(logrus.Fields{"session": sessionID, "product": productID}).Debug("RemoveItem called")
	l.mu.Lock()
	defer l.mu.Unlock()

	if cart, exists := l.store[sessionID]; exists {
		cart.Remove(productID)
	}
	return nil
}

// EmptyCart empties the session's cart.
func (l *LocalCartStore) EmptyCart(ctx context.Context, sessionID string) error {
	l.log.WithField("session", sessionID).Debug("EmptyCart called")
	l.mu.Lock()
	defer l.mu.Unlock()

	if cart, exists := l.store[sessionID]; exists {
		cart.Clear()
	}
	return nil
}

// GetCart returns a snapshot of the session's cart. A session without a
// cart reads as empty.
func (l *LocalCartStore) GetCart(ctx context.Context, sessionID string) ([]LineItem, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if cart, exists := l.store[sessionID]; exists {
		return cart.Items(), nil
	}
	return []LineItem{}, nil
}

// ItemCount returns the sum of quantities in the session's cart.
func (l *LocalCartStore) ItemCount(ctx context.Context, sessionID string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if cart, exists := l.store[sessionID]; exists {
		return cart.ItemCount(), nil
	}
	return 0, nil
}

// Forget drops the session's cart.
func (l *LocalCartStore) Forget(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.store, sessionID)
	return nil
}

// Sessions returns how many sessions hold a cart.
func (l *LocalCartStore) Sessions() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.store)
}

// Ping always succeeds.
func (l *LocalCartStore) Ping(ctx context.Context) bool {
	return true
}

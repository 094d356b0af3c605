// Package checkout drives the cart review panel of each session and the
// simulated checkout that empties the cart. No payment is taken.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Abh1nav004/Really/cartstore"
	"github.com/Abh1nav004/Really/clock"
	"github.com/Abh1nav004/Really/pricing"
)

// DefaultDelay stands in for the payment step.
const DefaultDelay = 1500 * time.Millisecond

// ConfirmationMessage is shown once the simulated order completes.
const ConfirmationMessage = "Thank you for your purchase. Your items will ship within 2 business days."

// State of the cart review panel.
type State int

const (
	Closed State = iota
	Open
	CheckoutComplete
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case CheckoutComplete:
		return "checkout_complete"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Cart is the part of the cart store the panel needs.
type Cart interface {
	GetCart(ctx context.Context, sessionID string) ([]cartstore.LineItem, error)
	EmptyCart(ctx context.Context, sessionID string) error
}

// Confirmation describes a completed simulated order.
type Confirmation struct {
	OrderID     string               `json:"order_id"`
	Message     string               `json:"message"`
	Items       []cartstore.LineItem `json:"items"`
	Totals      pricing.Totals       `json:"totals"`
	CompletedAt time.Time            `json:"completed_at"`
}

// Pending is a scheduled checkout that has not completed yet.
type Pending struct {
	m         *Manager
	sessionID string
	timer     clock.Timer
	done      chan struct{}

	// committing is set under Manager.mu once the cart is being emptied;
	// the checkout can no longer be cancelled.
	committing bool

	// written under Manager.mu before done is closed
	confirmation Confirmation
	err          error
}

// Done is closed when the checkout completes or is discarded.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result is valid after Done is closed.
func (p *Pending) Result() (Confirmation, error) {
	<-p.done
	return p.confirmation, p.err
}

// Cancel discards the checkout if it has not completed. The cart is left
// untouched and the panel stays open.
func (p *Pending) Cancel() bool {
	return p.m.cancel(p)
}

// Wait blocks until the checkout completes. If ctx ends first the checkout
// is cancelled.
func (p *Pending) Wait(ctx context.Context) (Confirmation, error) {
	select {
	case <-p.done:
		return p.Result()
	case <-ctx.Done():
		if p.Cancel() {
			return Confirmation{}, errors.WithStack(ctx.Err())
		}
		// completion won the race
		return p.Result()
	}
}

type panel struct {
	state   State
	pending *Pending
	last    *Confirmation
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option { return func(m *Manager) { m.clock = c } }

// WithDelay sets the simulated checkout duration.
func WithDelay(d time.Duration) Option { return func(m *Manager) { m.delay = d } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(m *Manager) { m.log = l } }

// WithCompletionHook registers f to run after each completed checkout.
func WithCompletionHook(f func(ctx context.Context, c Confirmation)) Option {
	return func(m *Manager) { m.hooks = append(m.hooks, f) }
}

// Manager owns the panel state of every session.
type Manager struct {
	mu     sync.Mutex
	panels map[string]*panel

	cart   Cart
	pricer *pricing.Pricer
	clock  clock.Clock
	delay  time.Duration
	log    logrus.FieldLogger
	hooks  []func(ctx context.Context, c Confirmation)
}

// NewManager constructor
func NewManager(cart Cart, pricer *pricing.Pricer, opts ...Option) *Manager {
	m := &Manager{
		panels: make(map[string]*panel),
		cart:   cart,
		pricer: pricer,
		clock:  clock.Real{},
		delay:  DefaultDelay,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.pricer == nil {
		m.pricer = pricing.DefaultPricer()
	}
	m.log = m.log.WithField("component", "checkout")
	return m
}

// ItemAdded opens the panel; it makes Manager a cartstore.Observer.
func (m *Manager) ItemAdded(ctx context.Context, sessionID string, item cartstore.LineItem) {
	m.Open(sessionID)
}

func (m *Manager) panelLocked(sessionID string) *panel {
	p, ok := m.panels[sessionID]
	if !ok {
		p = &panel{state: Closed}
		m.panels[sessionID] = p
	}
	return p
}

// State returns the panel state, Closed for unknown sessions.
func (m *Manager) State(sessionID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.panels[sessionID]; ok {
		return p.state
	}
	return Closed
}

// IsPending reports whether a checkout is in flight for the session.
func (m *Manager) IsPending(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.panels[sessionID]
	return ok && p.pending != nil
}

// LastConfirmation returns the most recent completed order of the session.
func (m *Manager) LastConfirmation(sessionID string) (Confirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.panels[sessionID]; ok && p.last != nil {
		return *p.last, true
	}
	return Confirmation{}, false
}

// Open shows the panel.
func (m *Manager) Open(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.panelLocked(sessionID)
	if p.state != Open {
		m.log.WithFields(logrus.Fields{"session": sessionID, "from": p.state}).Debug("panel opened")
	}
	p.state = Open
}

// Dismiss hides the panel. A pending checkout is discarded.
func (m *Manager) Dismiss(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.panels[sessionID]
	if !ok {
		return
	}
	if p.pending != nil && !p.pending.committing {
		m.log.WithField("session", sessionID).Info("pending checkout discarded on dismiss")
		m.discardLocked(p)
	}
	p.state = Closed
}

// Forget drops the session's panel, discarding a pending checkout that has
// not started emptying the cart.
func (m *Manager) Forget(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.panels[sessionID]
	if !ok {
		return nil
	}
	if p.pending != nil && !p.pending.committing {
		m.discardLocked(p)
	}
	delete(m.panels, sessionID)
	return nil
}

// Sessions returns how many sessions have panel state.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.panels)
}

// Checkout schedules the simulated order. The panel must be open, the cart
// non-empty and no other checkout in flight.
func (m *Manager) Checkout(ctx context.Context, sessionID string) (*Pending, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	items, err := m.cart.GetCart(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.panels[sessionID]
	if !ok {
		return nil, errors.Wrapf(ErrPanelNotOpen, "panel is %s", Closed)
	}
	if p.state != Open {
		return nil, errors.Wrapf(ErrPanelNotOpen, "panel is %s", p.state)
	}
	if p.pending != nil {
		return nil, ErrCheckoutPending
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	pending := &Pending{m: m, sessionID: sessionID, done: make(chan struct{})}
	pending.timer = m.clock.AfterFunc(m.delay, func() { m.complete(pending) })
	p.pending = pending

	m.log.WithFields(logrus.Fields{"session": sessionID, "delay": m.delay}).Info("checkout scheduled")
	return pending, nil
}

func (m *Manager) cancel(pending *Pending) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.panels[pending.sessionID]
	if !ok || p.pending != pending || pending.committing {
		return false
	}
	m.log.WithField("session", pending.sessionID).Info("pending checkout cancelled")
	m.discardLocked(p)
	return true
}

func (m *Manager) discardLocked(p *panel) {
	pending := p.pending
	pending.timer.Stop()
	pending.err = ErrCheckoutCancelled
	p.pending = nil
	close(pending.done)
}

func (m *Manager) complete(pending *Pending) {
	ctx := context.Background()

	m.mu.Lock()
	p, ok := m.panels[pending.sessionID]
	if !ok || p.pending != pending {
		// discarded after the timer fired
		m.mu.Unlock()
		return
	}
	pending.committing = true
	m.mu.Unlock()

	// cart I/O runs without m.mu; the cart store's observers call back into m
	items, err := m.cart.GetCart(ctx, pending.sessionID)
	if err == nil {
		err = m.cart.EmptyCart(ctx, pending.sessionID)
	}

	var conf Confirmation
	if err == nil {
		conf = Confirmation{
			OrderID:     uuid.New().String(),
			Message:     ConfirmationMessage,
			Items:       items,
			Totals:      m.pricer.ComputeTotals(items),
			CompletedAt: m.clock.Now(),
		}
	}

	m.mu.Lock()
	// the panel may have been dismissed or forgotten meanwhile
	if p, ok := m.panels[pending.sessionID]; ok && p.pending == pending {
		p.pending = nil
		if err == nil {
			if p.state == Open {
				p.state = CheckoutComplete
			}
			p.last = &conf
		}
	}
	if err != nil {
		pending.err = errors.Wrap(err, "complete checkout")
	} else {
		pending.confirmation = conf
	}
	close(pending.done)
	m.mu.Unlock()

	if err != nil {
		m.log.WithError(err).WithField("session", pending.sessionID).Error("checkout failed")
		return
	}

	m.log.WithFields(logrus.Fields{
		"session": pending.sessionID,
		"order":   conf.OrderID,
		"total":   conf.Totals.Total.StringFixed(2),
	}).Info("checkout completed")

	for _, h := range m.hooks {
		h(ctx, conf)
	}
}

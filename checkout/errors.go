package checkout

import "github.com/pkg/errors"

var (
	// ErrPanelNotOpen is returned when checkout is requested while the cart
	// review panel is not showing.
	ErrPanelNotOpen = errors.New("cart panel is not open")
	// ErrEmptyCart is returned when checkout is requested for an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCheckoutPending is returned when a checkout is already in flight.
	ErrCheckoutPending = errors.New("checkout already in progress")
	// ErrCheckoutCancelled is reported by a Pending that was discarded.
	ErrCheckoutCancelled = errors.New("checkout cancelled")
)

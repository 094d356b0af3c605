package cartstore

import "github.com/pkg/errors"

// ErrInvalidInput is returned when a malformed product or a non-positive
// quantity is passed to an add operation.
var ErrInvalidInput = errors.New("invalid input")

// Error message constants for cart input validation.
const (
	ErrMsgProductIDRequired   = "product id is required"
	ErrMsgProductNameRequired = "product name is required"
	ErrMsgPriceNegative       = "price must not be negative"
	ErrMsgQuantityPositive    = "quantity must be at least 1"
	ErrMsgQuantityTooLarge    = "quantity exceeds the per-line limit"
	ErrMsgSessionRequired     = "session id is required"
)

func invalid(msg string) error {
	return errors.Wrap(ErrInvalidInput, msg)
}

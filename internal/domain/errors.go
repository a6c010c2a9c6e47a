package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput marks malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")

	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAuthorizationDenied    = errors.New("authorization denied")

	// ErrInvalidReference is returned when an address, product or order id does not
	// resolve, or resolves to something the caller does not own.
	ErrInvalidReference = errors.New("invalid reference")

	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductInactive   = errors.New("product inactive")
	ErrEmptyCart         = errors.New("cart is empty")

	// ErrDuplicateOrder is returned when a payment intent is already attached to an order.
	ErrDuplicateOrder = errors.New("duplicate order")

	ErrPaymentProvider       = errors.New("payment provider error")
	ErrPaymentNotConfirmed   = errors.New("payment not confirmed")
	ErrPaymentAmountMismatch = errors.New("payment amount does not match order total")

	// ErrTransactionAborted wraps every failure raised while committing an order.
	// It guarantees the transaction was rolled back.
	ErrTransactionAborted = errors.New("transaction aborted")
)

// StockError describes why a product could not be reserved.
type StockError struct {
	ProductID string
	Requested int
	Available int
	Err       error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("product %s: %v (requested %d, available %d)", e.ProductID, e.Err, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return e.Err
}

// RetryCheckout reports whether err means the whole checkout should be retried from
// the cart (stock or payment state changed) rather than the input being fixed.
func RetryCheckout(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrProductInactive),
		errors.Is(err, ErrPaymentProvider),
		errors.Is(err, ErrPaymentNotConfirmed),
		errors.Is(err, ErrPaymentAmountMismatch):
		return true
	case errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrDuplicateOrder),
		errors.Is(err, ErrAuthenticationRequired),
		errors.Is(err, ErrAuthorizationDenied):
		return false
	}
	// Anything else aborted inside the commit is transient from the caller's view.
	return errors.Is(err, ErrTransactionAborted)
}

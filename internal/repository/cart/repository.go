package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores the persistent carts of signed-in customers.
type Repository interface {
	// Increment adds by units of productID, creating the row when missing.
	Increment(ctx context.Context, customerID, productID string, by int) error
	// Decrement removes one unit and deletes the row when it reaches zero.
	Decrement(ctx context.Context, customerID, productID string) error
	List(ctx context.Context, customerID string) ([]domain.CartLine, error)
	Clear(ctx context.Context, customerID string) error
	// Merge adds counts to the customer's cart in one transaction.
	Merge(ctx context.Context, customerID string, counts map[string]int) error
}

package order

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/inventory"
)

// Tx is the view of the database a single checkout works on. Every read that
// feeds a write takes a row lock held until the transaction ends.
type Tx interface {
	inventory.Stock

	AddressOwned(ctx context.Context, customerID, addressID string) (bool, error)
	// InsertOrder stores the header and fills in ID and CreatedAt. A payment
	// reference already used by another order yields domain.ErrDuplicateOrder.
	InsertOrder(ctx context.Context, o *domain.Order) error
	// CartLinesForUpdate returns the customer's cart ordered by product id.
	CartLinesForUpdate(ctx context.Context, customerID string) ([]domain.CartLine, error)
	InsertOrderLine(ctx context.Context, line domain.OrderLine) error
	DeleteCartItem(ctx context.Context, customerID, productID string) error
}

// Fulfillment carries the back-office fields that may change after commit.
// Nil fields are left untouched.
type Fulfillment struct {
	ShippedOn      *time.Time
	CompletedOn    *time.Time
	TrackingNumber *string
	Notes          *string
}

type Repository interface {
	// WithTx runs fn in a transaction and commits only when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	UpdateFulfillment(ctx context.Context, id string, f Fulfillment) (*domain.Order, error)
}

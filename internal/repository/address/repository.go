package address

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, a domain.Address) (*domain.Address, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Address, error)
	// Owned reports whether addressID exists and belongs to customerID.
	Owned(ctx context.Context, customerID, addressID string) (bool, error)
	// SetBilling makes addressID the customer's only billing address.
	SetBilling(ctx context.Context, customerID, addressID string) (*domain.Address, error)
}

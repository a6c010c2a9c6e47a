package product

import (
	"context"

	"storefront/internal/domain"
)

// ListFilter narrows catalog listings.
type ListFilter struct {
	ActiveOnly bool
}

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs returns the products found, keyed by id. Ids that are not uuids
	// are skipped.
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

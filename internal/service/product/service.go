// Package product is the read side of the catalog. Inactive products are only
// visible to admins.
package product

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, id domain.Identity) ([]domain.Product, error) {
	return s.repo.List(ctx, productrepo.ListFilter{ActiveOnly: !id.Admin})
}

func (s *Service) Get(ctx context.Context, id domain.Identity, productID string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Active && !id.Admin {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return p, nil
}

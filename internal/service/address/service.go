package address

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	addressrepo "storefront/internal/repository/address"
)

type Service struct {
	repo addressrepo.Repository
}

func New(repo addressrepo.Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	StreetName string `json:"streetName"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsBilling  bool   `json:"isBilling"`
}

func (s *Service) Create(ctx context.Context, id domain.Identity, in CreateInput) (*domain.Address, error) {
	if !id.Authenticated() {
		return nil, domain.ErrAuthenticationRequired
	}
	if strings.TrimSpace(in.StreetName) == "" || strings.TrimSpace(in.City) == "" || strings.TrimSpace(in.Country) == "" {
		return nil, fmt.Errorf("%w: streetName, city and country are required", domain.ErrInvalidInput)
	}
	return s.repo.Create(ctx, domain.Address{
		CustomerID: id.CustomerID,
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		StreetName: strings.TrimSpace(in.StreetName),
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(in.Country)),
		IsBilling:  in.IsBilling,
	})
}

func (s *Service) List(ctx context.Context, id domain.Identity) ([]domain.Address, error) {
	if !id.Authenticated() {
		return nil, domain.ErrAuthenticationRequired
	}
	return s.repo.ListByCustomer(ctx, id.CustomerID)
}

// SetBilling makes addressID the caller's billing address, demoting any other.
func (s *Service) SetBilling(ctx context.Context, id domain.Identity, addressID string) (*domain.Address, error) {
	if !id.Authenticated() {
		return nil, domain.ErrAuthenticationRequired
	}
	return s.repo.SetBilling(ctx, id.CustomerID, addressID)
}

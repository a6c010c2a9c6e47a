package address

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type memRepo struct {
	addresses []domain.Address
}

func (m *memRepo) Create(_ context.Context, a domain.Address) (*domain.Address, error) {
	a.ID = fmt.Sprintf("addr-%d", len(m.addresses)+1)
	if a.IsBilling {
		m.demote(a.CustomerID)
	}
	m.addresses = append(m.addresses, a)
	return &a, nil
}

func (m *memRepo) ListByCustomer(_ context.Context, customerID string) ([]domain.Address, error) {
	var out []domain.Address
	for _, a := range m.addresses {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) Owned(_ context.Context, customerID, addressID string) (bool, error) {
	for _, a := range m.addresses {
		if a.ID == addressID {
			return a.CustomerID == customerID, nil
		}
	}
	return false, nil
}

func (m *memRepo) SetBilling(ctx context.Context, customerID, addressID string) (*domain.Address, error) {
	ok, _ := m.Owned(ctx, customerID, addressID)
	if !ok {
		return nil, domain.ErrInvalidReference
	}
	m.demote(customerID)
	for i := range m.addresses {
		if m.addresses[i].ID == addressID {
			m.addresses[i].IsBilling = true
			a := m.addresses[i]
			return &a, nil
		}
	}
	return nil, domain.ErrInvalidReference
}

func (m *memRepo) demote(customerID string) {
	for i := range m.addresses {
		if m.addresses[i].CustomerID == customerID {
			m.addresses[i].IsBilling = false
		}
	}
}

func TestCreateValidatesAndNormalizes(t *testing.T) {
	svc := New(&memRepo{})
	ctx := context.Background()
	id := domain.Identity{CustomerID: "cust-1"}

	_, err := svc.Create(ctx, domain.Identity{}, CreateInput{StreetName: "A", City: "B", Country: "us"})
	require.ErrorIs(t, err, domain.ErrAuthenticationRequired)

	_, err = svc.Create(ctx, id, CreateInput{City: "B", Country: "us"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	a, err := svc.Create(ctx, id, CreateInput{StreetName: " Main St 1 ", City: "Springfield", Country: "us"})
	require.NoError(t, err)
	assert.Equal(t, "Main St 1", a.StreetName)
	assert.Equal(t, "US", a.Country)
	assert.Equal(t, "cust-1", a.CustomerID)
}

func TestSetBillingKeepsOneBillingAddress(t *testing.T) {
	repo := &memRepo{}
	svc := New(repo)
	ctx := context.Background()
	id := domain.Identity{CustomerID: "cust-1"}

	first, err := svc.Create(ctx, id, CreateInput{StreetName: "A", City: "X", Country: "US", IsBilling: true})
	require.NoError(t, err)
	second, err := svc.Create(ctx, id, CreateInput{StreetName: "B", City: "X", Country: "US"})
	require.NoError(t, err)

	_, err = svc.SetBilling(ctx, id, second.ID)
	require.NoError(t, err)

	list, err := svc.List(ctx, id)
	require.NoError(t, err)
	billing := map[string]bool{}
	for _, a := range list {
		billing[a.ID] = a.IsBilling
	}
	assert.Equal(t, map[string]bool{first.ID: false, second.ID: true}, billing)

	_, err = svc.SetBilling(ctx, domain.Identity{CustomerID: "cust-2"}, first.ID)
	require.ErrorIs(t, err, domain.ErrInvalidReference)
}

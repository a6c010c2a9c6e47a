// Package cart serves carts from two stores: Postgres for signed-in customers
// and the Redis session for anonymous shoppers.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// CartProvider is one shopper's cart. Lines joins the stored counts with the
// current product rows.
type CartProvider interface {
	Add(ctx context.Context, productID string) error
	Remove(ctx context.Context, productID string) error
	Lines(ctx context.Context) ([]domain.CartLine, error)
	Clear(ctx context.Context) error
}

type cartRepo interface {
	Increment(ctx context.Context, customerID, productID string, by int) error
	Decrement(ctx context.Context, customerID, productID string) error
	List(ctx context.Context, customerID string) ([]domain.CartLine, error)
	Clear(ctx context.Context, customerID string) error
	Merge(ctx context.Context, customerID string, counts map[string]int) error
}

type sessionRepo interface {
	IncrementItem(ctx context.Context, anonymousID, productID string) (int, error)
	DecrementItem(ctx context.Context, anonymousID, productID string) (int, error)
	Items(ctx context.Context, anonymousID string) (map[string]int, error)
	ClearItems(ctx context.Context, anonymousID string) error
	RestoreItems(ctx context.Context, anonymousID string, items map[string]int) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type Service struct {
	carts    cartRepo
	sessions sessionRepo
	products productRepo
	logger   *zap.Logger
}

func New(carts cartRepo, sessions sessionRepo, products productRepo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{carts: carts, sessions: sessions, products: products, logger: logger.Named("cart")}
}

// For returns the signed-in customer's cart, or the session cart of
// anonymousID when the caller is anonymous.
func (s *Service) For(id domain.Identity, anonymousID string) (CartProvider, error) {
	if id.Authenticated() {
		return &persistentCart{svc: s, customerID: id.CustomerID}, nil
	}
	if anonymousID == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	if s.sessions == nil {
		return nil, fmt.Errorf("session carts are not configured: %w", domain.ErrAuthenticationRequired)
	}
	return &localCart{svc: s, anonymousID: anonymousID}, nil
}

// MergeInto moves the session cart of anonymousID into the customer's cart,
// adding counts. The session cart is cleared before the merge and restored
// when the merge fails, so a retried login never counts an item twice.
func (s *Service) MergeInto(ctx context.Context, anonymousID, customerID string) error {
	if anonymousID == "" || s.sessions == nil {
		return nil
	}
	items, err := s.sessions.Items(ctx, anonymousID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	if err := s.sessions.ClearItems(ctx, anonymousID); err != nil {
		return err
	}
	counts, err := s.merge(ctx, customerID, items)
	if err != nil {
		if rerr := s.sessions.RestoreItems(ctx, anonymousID, items); rerr != nil {
			s.logger.Error("session cart lost after failed merge",
				zap.String("customer", customerID),
				zap.Int("products", len(items)),
				zap.Error(rerr))
		}
		return err
	}
	s.logger.Info("session cart merged",
		zap.String("customer", customerID),
		zap.Int("products", len(counts)),
		zap.Int("dropped", len(items)-len(counts)))
	return nil
}

func (s *Service) merge(ctx context.Context, customerID string, items map[string]int) (map[string]int, error) {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	known, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(items))
	for id, n := range items {
		if _, ok := known[id]; ok {
			counts[id] = n
		}
	}
	return counts, s.carts.Merge(ctx, customerID, counts)
}

// checkProduct returns the product in its stored form, so carts always hold
// canonical ids.
func (s *Service) checkProduct(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, domain.ErrInvalidReference)
		}
		return nil, err
	}
	if !p.Active {
		return nil, &domain.StockError{ProductID: p.ID, Requested: 1, Available: p.Quantity, Err: domain.ErrProductInactive}
	}
	return p, nil
}

type persistentCart struct {
	svc        *Service
	customerID string
}

func (c *persistentCart) Add(ctx context.Context, productID string) error {
	p, err := c.svc.checkProduct(ctx, productID)
	if err != nil {
		return err
	}
	return c.svc.carts.Increment(ctx, c.customerID, p.ID, 1)
}

func (c *persistentCart) Remove(ctx context.Context, productID string) error {
	return c.svc.carts.Decrement(ctx, c.customerID, productID)
}

func (c *persistentCart) Lines(ctx context.Context) ([]domain.CartLine, error) {
	return c.svc.carts.List(ctx, c.customerID)
}

func (c *persistentCart) Clear(ctx context.Context) error {
	return c.svc.carts.Clear(ctx, c.customerID)
}

type localCart struct {
	svc         *Service
	anonymousID string
}

func (c *localCart) Add(ctx context.Context, productID string) error {
	p, err := c.svc.checkProduct(ctx, productID)
	if err != nil {
		return err
	}
	_, err = c.svc.sessions.IncrementItem(ctx, c.anonymousID, p.ID)
	return err
}

func (c *localCart) Remove(ctx context.Context, productID string) error {
	_, err := c.svc.sessions.DecrementItem(ctx, c.anonymousID, strings.ToLower(productID))
	return err
}

// Lines skips products deleted from the catalog since they were added.
func (c *localCart) Lines(ctx context.Context) ([]domain.CartLine, error) {
	items, err := c.svc.sessions.Items(ctx, c.anonymousID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	products, err := c.svc.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.CartLine, 0, len(ids))
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			continue
		}
		lines = append(lines, domain.CartLine{Product: p, Count: items[id]})
	}
	return lines, nil
}

func (c *localCart) Clear(ctx context.Context) error {
	return c.svc.sessions.ClearItems(ctx, c.anonymousID)
}

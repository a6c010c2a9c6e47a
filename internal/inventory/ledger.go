// Package inventory enforces stock rules when a cart is turned into an order.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
)

// Stock is the transaction-scoped view of product rows the ledger works on.
// LockProduct must hold a row lock until the surrounding transaction ends.
type Stock interface {
	LockProduct(ctx context.Context, productID string) (*domain.Product, error)
	SetProductQuantity(ctx context.Context, productID string, quantity int) error
}

// Deduction returns how many units to take from p for an order of count units.
// Made-to-order products floor at zero instead of failing.
func Deduction(p domain.Product, count int) (int, error) {
	if count <= 0 {
		return 0, fmt.Errorf("%w: count must be positive", domain.ErrInvalidInput)
	}
	if !p.Active {
		return 0, &domain.StockError{ProductID: p.ID, Requested: count, Available: p.Quantity, Err: domain.ErrProductInactive}
	}
	if p.Quantity >= count {
		return count, nil
	}
	if p.MadeToOrder {
		return p.Quantity, nil
	}
	return 0, &domain.StockError{ProductID: p.ID, Requested: count, Available: p.Quantity, Err: domain.ErrInsufficientStock}
}

// Reserve locks the product row, checks it can cover count and writes the new
// quantity. It returns the product as read under the lock, before the deduction.
func Reserve(ctx context.Context, stock Stock, productID string, count int) (*domain.Product, error) {
	p, err := stock.LockProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, domain.ErrInvalidReference)
		}
		return nil, err
	}
	take, err := Deduction(*p, count)
	if err != nil {
		return nil, err
	}
	if take == 0 {
		return p, nil
	}
	if err := stock.SetProductQuantity(ctx, productID, p.Quantity-take); err != nil {
		return nil, err
	}
	return p, nil
}

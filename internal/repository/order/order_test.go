package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/dbtest"
	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

func TestPostgres_MalformedOrderID(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool)

	if _, err := repo.Get(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	notes := "x"
	if _, err := repo.UpdateFulfillment(ctx, "not-a-uuid", Fulfillment{Notes: &notes}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateFulfillment: expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_LockProductLeavesCartWritesOpen(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	customerID := dbtest.Customer(t, pool, "lock@example.com")
	productID := dbtest.Product(t, pool, "p1", 100, 5, false)
	repo := NewPostgres(pool)
	carts := cartrepo.NewPostgres(pool)

	err := repo.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.LockProduct(ctx, productID); err != nil {
			return err
		}
		if _, err := tx.LockProduct(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("LockProduct malformed: expected ErrNotFound, got %v", err)
		}
		// Runs on another connection while the product row is locked.
		wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return carts.Increment(wctx, customerID, productID, 1)
	})
	if err != nil {
		t.Fatalf("cart insert blocked by product lock: %v", err)
	}
}

package product

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/dbtest"
	"storefront/internal/domain"
)

func TestPostgres_ListAndGet(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)

	pid := dbtest.Product(t, pool, "p1", 100, 5, false)
	inactive := dbtest.Product(t, pool, "p2", 200, 5, false)
	if _, err := pool.Exec(ctx, `UPDATE products SET is_active = FALSE WHERE id = $1`, inactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	repo := NewPostgres(pool, nil)

	all, err := repo.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 products, got %d", len(all))
	}
	active, err := repo.List(ctx, ListFilter{ActiveOnly: true})
	if err != nil {
		t.Fatalf("List active: %v", err)
	}
	if len(active) != 1 || active[0].ID != pid {
		t.Fatalf("unexpected active list %+v", active)
	}

	got, err := repo.GetByID(ctx, pid)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PriceCents != 100 || got.Quantity != 5 || !got.Active {
		t.Fatalf("unexpected product %+v", got)
	}

	byIDs, err := repo.GetByIDs(ctx, []string{pid, inactive, "00000000-0000-0000-0000-000000000000"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(byIDs) != 2 {
		t.Fatalf("expected 2 products by id, got %d", len(byIDs))
	}

	if _, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_MalformedIDs(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	pid := dbtest.Product(t, pool, "p1", 100, 5, false)
	repo := NewPostgres(pool, nil)

	if _, err := repo.GetByID(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}

	got, err := repo.GetByID(ctx, strings.ToUpper(pid))
	if err != nil {
		t.Fatalf("GetByID upper-case: %v", err)
	}
	if got.ID != pid {
		t.Fatalf("expected canonical id %s, got %s", pid, got.ID)
	}

	byIDs, err := repo.GetByIDs(ctx, []string{"not-a-uuid", pid})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if _, ok := byIDs[pid]; !ok || len(byIDs) != 1 {
		t.Fatalf("unexpected products %v", byIDs)
	}
}

func TestPostgres_Upsert(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	p, err := repo.Upsert(ctx, domain.Product{
		Key:        "p1",
		Title:      "Prod 1",
		PriceCents: 100,
		Quantity:   3,
		Active:     true,
	})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected ID set")
	}

	updated, err := repo.Upsert(ctx, domain.Product{
		Key:         "p1",
		Title:       "Prod 1 updated",
		Description: "new desc",
		PriceCents:  200,
		Quantity:    0,
		MadeToOrder: true,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if updated.ID != p.ID {
		t.Fatalf("expected same ID after update")
	}
	if updated.Description != "new desc" || updated.PriceCents != 200 || !updated.MadeToOrder {
		t.Fatalf("unexpected updated product %+v", updated)
	}

	if _, err := repo.Upsert(ctx, domain.Product{Key: "bad", Title: "Bad", PriceCents: -1}); err == nil {
		t.Fatalf("expected negative price to be rejected")
	}
}

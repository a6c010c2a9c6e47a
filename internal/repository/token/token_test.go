package token

import (
	"context"
	"testing"
	"time"

	"storefront/internal/dbtest"
	"storefront/internal/domain"
)

func TestPostgres_Lifecycle(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	customerID := dbtest.Customer(t, pool, "tokens@example.com")
	repo := NewPostgres(pool)

	now := time.Now()
	live := Token{Token: "live", CustomerID: customerID, Kind: "access", ExpiresAt: now.Add(time.Hour)}
	stale := Token{Token: "stale", CustomerID: customerID, Kind: "access", ExpiresAt: now.Add(-time.Hour)}
	for _, tok := range []Token{live, stale} {
		if err := repo.Create(ctx, tok); err != nil {
			t.Fatalf("Create %s: %v", tok.Token, err)
		}
	}
	if err := repo.Create(ctx, live); err != domain.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := repo.Get(ctx, "live")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CustomerID != customerID || got.Kind != "access" {
		t.Fatalf("unexpected token %+v", got)
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged token, got %d", n)
	}
	if _, err := repo.Get(ctx, "stale"); err != domain.ErrNotFound {
		t.Fatalf("expected stale token gone, got %v", err)
	}

	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "live"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

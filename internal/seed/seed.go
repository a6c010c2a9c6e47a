// Package seed loads demo data for manual testing.
package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
	customersvc "storefront/internal/service/customer"
)

// Accounts are the credentials created by Apply.
type Accounts struct {
	AdminEmail    string
	AdminPassword string
	ShopperEmail  string
	ShopperPass   string
}

var DefaultAccounts = Accounts{
	AdminEmail:    "admin@storefront.local",
	AdminPassword: "Admin-Passw0rd",
	ShopperEmail:  "shopper@storefront.local",
	ShopperPass:   "Shopper-Passw0rd",
}

var demoProducts = []domain.Product{
	{Key: "demo-shirt", Title: "Demo T-Shirt", Description: "Soft cotton tee for demo purposes", PriceCents: 1999, Quantity: 25, Active: true},
	{Key: "demo-mug", Title: "Demo Mug", Description: "Ceramic mug with demo logo", PriceCents: 1299, Quantity: 1, Active: true},
	{Key: "demo-portrait", Title: "Pet Portrait", Description: "Painted after the order is placed", PriceCents: 25000, MadeToOrder: true, Active: true},
	{Key: "demo-retired", Title: "Retired Poster", PriceCents: 500, Quantity: 10, Active: false},
}

// Apply inserts seed data. It is idempotent via ON CONFLICT; existing
// passwords are reset to the seeded ones.
func Apply(ctx context.Context, pool *pgxpool.Pool, accounts Accounts, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	products := productrepo.NewPostgres(pool, logger)
	for _, p := range demoProducts {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}

	if _, err := ensureCustomer(ctx, pool, accounts.AdminEmail, accounts.AdminPassword, "Store", "Admin", true); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	shopperID, err := ensureCustomer(ctx, pool, accounts.ShopperEmail, accounts.ShopperPass, "Demo", "Shopper", false)
	if err != nil {
		return fmt.Errorf("ensure shopper: %w", err)
	}
	if err := ensureBillingAddress(ctx, pool, shopperID); err != nil {
		return fmt.Errorf("ensure address: %w", err)
	}

	logger.Info("seed applied",
		zap.Int("products", len(demoProducts)),
		zap.String("admin", accounts.AdminEmail),
		zap.String("shopper", accounts.ShopperEmail))
	return nil
}

func ensureCustomer(ctx context.Context, pool *pgxpool.Pool, email, password, first, last string, admin bool) (string, error) {
	hash, err := customersvc.HashPassword(password)
	if err != nil {
		return "", err
	}
	const q = `
INSERT INTO customers (email, password_hash, first_name, last_name, is_admin)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT ((lower(email))) DO UPDATE
SET password_hash = EXCLUDED.password_hash,
    is_admin = EXCLUDED.is_admin
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, email, hash, first, last, admin).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func ensureBillingAddress(ctx context.Context, pool *pgxpool.Pool, customerID string) error {
	const q = `
INSERT INTO addresses (customer_id, first_name, last_name, street_name, city, postal_code, country, is_billing)
SELECT $1, 'Demo', 'Shopper', '1 Market Street', 'Springfield', '12345', 'US', TRUE
WHERE NOT EXISTS (SELECT 1 FROM addresses WHERE customer_id = $1)
`
	_, err := pool.Exec(ctx, q, customerID)
	return err
}

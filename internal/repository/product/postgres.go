package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/db"
	"storefront/internal/domain"
)

const productColumns = `id::text, key, title, COALESCE(description, ''), price_cents, quantity, is_made_to_order, is_active, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("product-repo")}
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products
WHERE ($1 = FALSE OR is_active)
ORDER BY title ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q, filter.ActiveOnly)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.Int("count", len(result)), zap.Bool("activeOnly", filter.ActiveOnly))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	pid, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + productColumns + `
FROM products
WHERE id = $1
`
	p, err := Scan(r.pool.QueryRow(ctx, q, pid))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Debug("get not found", zap.String("id", id))
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	valid := db.ParseIDs(ids)
	if len(valid) == 0 {
		return out, nil
	}
	q := `SELECT ` + productColumns + `
FROM products
WHERE id = ANY($1::uuid[])
`
	rows, err := r.pool.Query(ctx, q, valid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	return out, rows.Err()
}

// Upsert inserts a product or updates the row with the same key.
func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (id, key, title, description, price_cents, quantity, is_made_to_order, is_active)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
ON CONFLICT (key) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    quantity = EXCLUDED.quantity,
    is_made_to_order = EXCLUDED.is_made_to_order,
    is_active = EXCLUDED.is_active,
    updated_at = now()
RETURNING ` + productColumns
	res, err := Scan(r.pool.QueryRow(ctx, q,
		product.ID,
		product.Key,
		product.Title,
		product.Description,
		product.PriceCents,
		product.Quantity,
		product.MadeToOrder,
		product.Active,
	))
	if err != nil {
		r.logger.Error("upsert", zap.String("key", product.Key), zap.Error(err))
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s existing_id=%s import_id=%s", product.Key, res.ID, product.ID)
	}
	r.logger.Debug("upserted", zap.String("key", res.Key), zap.String("id", res.ID))
	return res, nil
}

// Scan reads one product selected with the standard column list.
func Scan(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Key, &p.Title, &p.Description, &p.PriceCents, &p.Quantity, &p.MadeToOrder, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Columns is the select list Scan expects, for queries in other repositories.
func Columns(alias string) string {
	if alias == "" {
		return productColumns
	}
	a := alias + "."
	return a + `id::text, ` + a + `key, ` + a + `title, COALESCE(` + a + `description, ''), ` + a + `price_cents, ` + a + `quantity, ` + a + `is_made_to_order, ` + a + `is_active, ` + a + `created_at, ` + a + `updated_at`
}

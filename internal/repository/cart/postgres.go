package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const incrementQuery = `
INSERT INTO cart_items (customer_id, product_id, count)
VALUES ($1, $2, $3)
ON CONFLICT (customer_id, product_id) DO UPDATE SET count = cart_items.count + EXCLUDED.count
`

func (r *postgresRepo) Increment(ctx context.Context, customerID, productID string, by int) error {
	if by <= 0 {
		return fmt.Errorf("%w: count must be positive", domain.ErrInvalidInput)
	}
	_, err := r.pool.Exec(ctx, incrementQuery, customerID, productID, by)
	return mapErr(err)
}

func (r *postgresRepo) Decrement(ctx context.Context, customerID, productID string) error {
	pid, err := db.ParseID(productID)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var count int
		err := tx.QueryRow(ctx, `
UPDATE cart_items SET count = count - 1
WHERE customer_id = $1 AND product_id = $2
RETURNING count
`, customerID, pid).Scan(&count)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if count > 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE customer_id = $1 AND product_id = $2`, customerID, pid)
		return err
	})
}

func (r *postgresRepo) List(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	q := `
SELECT c.count, ` + productrepo.Columns("p") + `
FROM cart_items c
JOIN products p ON p.id = c.product_id
WHERE c.customer_id = $1
ORDER BY c.created_at ASC, p.id ASC
`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		p := &line.Product
		if err := rows.Scan(&line.Count, &p.ID, &p.Key, &p.Title, &p.Description, &p.PriceCents, &p.Quantity, &p.MadeToOrder, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *postgresRepo) Clear(ctx context.Context, customerID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE customer_id = $1`, customerID)
	return err
}

func (r *postgresRepo) Merge(ctx context.Context, customerID string, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}
	// Rows are written in product id order, the order checkout locks them in.
	ids := make([]string, 0, len(counts))
	for productID, n := range counts {
		if n > 0 {
			ids = append(ids, productID)
		}
	}
	sort.Strings(ids)
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, productID := range ids {
			if _, err := tx.Exec(ctx, incrementQuery, customerID, productID, counts[productID]); err != nil {
				return mapErr(err)
			}
		}
		return nil
	})
}

// mapErr turns a foreign key violation on product_id into ErrInvalidReference.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return domain.ErrInvalidReference
	}
	return err
}

package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
)

const addressColumns = `id::text, customer_id::text, first_name, last_name, street_name, city, postal_code, country, is_billing, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// Create stores a. When a.IsBilling is set the previous billing address is
// demoted in the same transaction.
func (r *postgresRepo) Create(ctx context.Context, a domain.Address) (*domain.Address, error) {
	var out *domain.Address
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if a.IsBilling {
			if err := demoteBilling(ctx, tx, a.CustomerID); err != nil {
				return err
			}
		}
		const q = `
INSERT INTO addresses (customer_id, first_name, last_name, street_name, city, postal_code, country, is_billing)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + addressColumns
		var err error
		out, err = scanAddress(tx.QueryRow(ctx, q, a.CustomerID, a.FirstName, a.LastName, a.StreetName, a.City, a.PostalCode, a.Country, a.IsBilling))
		return err
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Address, error) {
	const q = `SELECT ` + addressColumns + `
FROM addresses
WHERE customer_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Owned(ctx context.Context, customerID, addressID string) (bool, error) {
	return AddressOwned(ctx, r.pool, customerID, addressID)
}

func (r *postgresRepo) SetBilling(ctx context.Context, customerID, addressID string) (*domain.Address, error) {
	var out *domain.Address
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		ok, err := AddressOwned(ctx, tx, customerID, addressID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidReference
		}
		if err := demoteBilling(ctx, tx, customerID); err != nil {
			return err
		}
		const q = `UPDATE addresses SET is_billing = TRUE WHERE id = $1 RETURNING ` + addressColumns
		out, err = scanAddress(tx.QueryRow(ctx, q, addressID))
		return err
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// Querier is satisfied by both a pool and a transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AddressOwned checks ownership through q, so order commits can run it inside
// their own transaction.
func AddressOwned(ctx context.Context, q Querier, customerID, addressID string) (bool, error) {
	id, err := db.ParseID(addressID)
	if err != nil {
		return false, nil
	}
	var ok bool
	err = q.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1 AND customer_id = $2)
`, id, customerID).Scan(&ok)
	return ok, err
}

// demoteBilling clears the customer's billing flag. It first locks the customer
// row so concurrent billing changes for one customer run one after another.
func demoteBilling(ctx context.Context, tx pgx.Tx, customerID string) error {
	var locked string
	err := tx.QueryRow(ctx, `SELECT id::text FROM customers WHERE id = $1 FOR NO KEY UPDATE`, customerID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInvalidReference
		}
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE addresses SET is_billing = FALSE WHERE customer_id = $1 AND is_billing`, customerID)
	return err
}

// mapErr reports a lost race on the single billing address index as a conflict.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("billing address changed concurrently: %w", domain.ErrAlreadyExists)
	}
	return err
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.CustomerID, &a.FirstName, &a.LastName, &a.StreetName, &a.City, &a.PostalCode, &a.Country, &a.IsBilling, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

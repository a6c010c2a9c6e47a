package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
	addressrepo "storefront/internal/repository/address"
	productrepo "storefront/internal/repository/product"
)

const orderColumns = `id::text, customer_id::text, address_id::text, COALESCE(payment_intent_id, ''), is_shipped, is_complete, shipped_on, completed_on, tracking_number, notes, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&postgresTx{tx: tx})
	})
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	const q = `SELECT ` + orderColumns + `
FROM orders
WHERE customer_id = $1
ORDER BY created_at DESC, id ASC
`
	return r.list(ctx, q, customerID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	const q = `SELECT ` + orderColumns + `
FROM orders
ORDER BY created_at DESC, id ASC
`
	return r.list(ctx, q)
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, oid))
	if err != nil {
		return nil, err
	}
	lines, err := r.lines(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

func (r *postgresRepo) UpdateFulfillment(ctx context.Context, id string, f Fulfillment) (*domain.Order, error) {
	oid, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE orders SET
    shipped_on      = COALESCE($2, shipped_on),
    is_shipped      = is_shipped OR $2::timestamptz IS NOT NULL,
    completed_on    = COALESCE($3, completed_on),
    is_complete     = is_complete OR $3::timestamptz IS NOT NULL,
    tracking_number = COALESCE($4, tracking_number),
    notes           = COALESCE($5, notes)
WHERE id = $1
RETURNING id::text
`
	var updated string
	if err := r.pool.QueryRow(ctx, q, oid, f.ShippedOn, f.CompletedOn, f.TrackingNumber, f.Notes).Scan(&updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.Get(ctx, updated)
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	lines, err := r.lines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

func (r *postgresRepo) lines(ctx context.Context, orderIDs []string) (map[string][]domain.OrderLine, error) {
	const q = `
SELECT l.order_id::text, l.product_id::text, p.title, l.count, l.price_cents
FROM order_lines l
JOIN products p ON p.id = l.product_id
WHERE l.order_id = ANY($1::uuid[])
ORDER BY l.order_id, l.product_id
`
	rows, err := r.pool.Query(ctx, q, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]domain.OrderLine, len(orderIDs))
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.ProductTitle, &l.Count, &l.PriceCents); err != nil {
			return nil, err
		}
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}

type postgresTx struct {
	tx pgx.Tx
}

// LockProduct takes FOR NO KEY UPDATE so that cart inserts referencing the
// product are not blocked by a running checkout.
func (t *postgresTx) LockProduct(ctx context.Context, productID string) (*domain.Product, error) {
	pid, err := db.ParseID(productID)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + productrepo.Columns("") + ` FROM products WHERE id = $1 FOR NO KEY UPDATE`
	return productrepo.Scan(t.tx.QueryRow(ctx, q, pid))
}

func (t *postgresTx) SetProductQuantity(ctx context.Context, productID string, quantity int) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE products SET quantity = $2, updated_at = now() WHERE id = $1`, productID, quantity)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *postgresTx) AddressOwned(ctx context.Context, customerID, addressID string) (bool, error) {
	return addressrepo.AddressOwned(ctx, t.tx, customerID, addressID)
}

func (t *postgresTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	const q = `
INSERT INTO orders (customer_id, address_id, payment_intent_id, tracking_number, notes)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)
RETURNING id::text, created_at
`
	err := t.tx.QueryRow(ctx, q, o.CustomerID, o.AddressID, o.PaymentIntentID, o.TrackingNumber, o.Notes).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateOrder
		}
		return err
	}
	return nil
}

func (t *postgresTx) CartLinesForUpdate(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	const q = `
SELECT product_id::text, count
FROM cart_items
WHERE customer_id = $1
ORDER BY product_id
FOR UPDATE
`
	rows, err := t.tx.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.Product.ID, &l.Count); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (t *postgresTx) InsertOrderLine(ctx context.Context, line domain.OrderLine) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO order_lines (order_id, product_id, count, price_cents)
VALUES ($1, $2, $3, $4)
`, line.OrderID, line.ProductID, line.Count, line.PriceCents)
	return err
}

func (t *postgresTx) DeleteCartItem(ctx context.Context, customerID, productID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE customer_id = $1 AND product_id = $2`, customerID, productID)
	return err
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.AddressID, &o.PaymentIntentID, &o.IsShipped, &o.IsComplete, &o.ShippedOn, &o.CompletedOn, &o.TrackingNumber, &o.Notes, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

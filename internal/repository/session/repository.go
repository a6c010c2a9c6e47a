// Package session keeps anonymous session state in Redis: the token to
// anonymous id mapping and the session-scoped cart.
package session

import (
	"context"
	"time"
)

type Repository interface {
	// PutToken binds token to anonymousID until ttl elapses.
	PutToken(ctx context.Context, token, anonymousID string, ttl time.Duration) error
	// LookupToken returns the anonymous id bound to token or domain.ErrNotFound.
	LookupToken(ctx context.Context, token string) (string, error)

	IncrementItem(ctx context.Context, anonymousID, productID string) (int, error)
	// DecrementItem removes one unit and drops the field at zero. It returns
	// domain.ErrNotFound when the product is not in the cart.
	DecrementItem(ctx context.Context, anonymousID, productID string) (int, error)
	Items(ctx context.Context, anonymousID string) (map[string]int, error)
	ClearItems(ctx context.Context, anonymousID string) error
	// RestoreItems adds items back to the session cart.
	RestoreItems(ctx context.Context, anonymousID string, items map[string]int) error
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

const (
	tokenPrefix = "session:token:"
	cartPrefix  = "cart:session:"
)

// decrementScript decrements a hash field and deletes it at zero. It returns
// -1 when the field does not exist.
var decrementScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
  return -1
end
local n = redis.call("HINCRBY", KEYS[1], ARGV[1], -1)
if n <= 0 then
  redis.call("HDEL", KEYS[1], ARGV[1])
  return 0
end
redis.call("EXPIRE", KEYS[1], ARGV[2])
return n
`)

type redisRepo struct {
	client  redis.UniversalClient
	cartTTL time.Duration
}

// NewRedis returns a Repository whose carts expire cartTTL after their last write.
func NewRedis(client redis.UniversalClient, cartTTL time.Duration) Repository {
	return &redisRepo{client: client, cartTTL: cartTTL}
}

func (r *redisRepo) PutToken(ctx context.Context, token, anonymousID string, ttl time.Duration) error {
	return r.client.Set(ctx, tokenPrefix+token, anonymousID, ttl).Err()
}

func (r *redisRepo) LookupToken(ctx context.Context, token string) (string, error) {
	id, err := r.client.Get(ctx, tokenPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (r *redisRepo) IncrementItem(ctx context.Context, anonymousID, productID string) (int, error) {
	key := cartPrefix + anonymousID
	pipe := r.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, productID, 1)
	pipe.Expire(ctx, key, r.cartTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (r *redisRepo) DecrementItem(ctx context.Context, anonymousID, productID string) (int, error) {
	ttl := int64(r.cartTTL / time.Second)
	n, err := decrementScript.Run(ctx, r.client, []string{cartPrefix + anonymousID}, productID, ttl).Int()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, domain.ErrNotFound
	}
	return n, nil
}

func (r *redisRepo) Items(ctx context.Context, anonymousID string) (map[string]int, error) {
	raw, err := r.client.HGetAll(ctx, cartPrefix+anonymousID).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(raw))
	for productID, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("session cart %s: bad count for %s: %w", anonymousID, productID, err)
		}
		if n > 0 {
			out[productID] = n
		}
	}
	return out, nil
}

func (r *redisRepo) ClearItems(ctx context.Context, anonymousID string) error {
	return r.client.Del(ctx, cartPrefix+anonymousID).Err()
}

func (r *redisRepo) RestoreItems(ctx context.Context, anonymousID string, items map[string]int) error {
	if len(items) == 0 {
		return nil
	}
	key := cartPrefix + anonymousID
	pipe := r.client.TxPipeline()
	for productID, n := range items {
		pipe.HIncrBy(ctx, key, productID, int64(n))
	}
	pipe.Expire(ctx, key, r.cartTTL)
	_, err := pipe.Exec(ctx)
	return err
}

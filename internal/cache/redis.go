package cache

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
)

// DefaultTTL is used when RedisCache is created with a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// RedisCache stores product snapshots as JSON under "product:<handle>".
type RedisCache struct {
	client  redis.Cmdable
	baseTTL time.Duration
}

var _ ProductCache = (*RedisCache)(nil)

// NewRedisCache creates a RedisCache. Entries live for ttl plus up to a fifth
// of ttl of jitter so snapshots cached together do not expire together.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, baseTTL: ttl}
}

// Get returns the snapshot stored for handle. An entry that no longer
// decodes is evicted and reported as an error.
func (r *RedisCache) Get(ctx context.Context, handle string) (catalog.Product, error) {
	data, err := r.client.Get(ctx, productKey(handle)).Bytes()
	if errors.Is(err, redis.Nil) {
		return catalog.Product{}, ErrCacheMiss
	}
	if err != nil {
		return catalog.Product{}, errors.Wrap(err, "redis get")
	}

	var p catalog.Product
	if err := json.Unmarshal(data, &p); err != nil {
		if delErr := r.Delete(ctx, handle); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return catalog.Product{}, errors.Wrap(err, "unmarshal product")
	}
	return p, nil
}

func (r *RedisCache) Set(ctx context.Context, p catalog.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal product")
	}
	if err := r.client.Set(ctx, productKey(p.Handle), data, r.ttl()).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, handle string) error {
	if err := r.client.Del(ctx, productKey(handle)).Err(); err != nil {
		return errors.Wrap(err, "redis delete")
	}
	return nil
}

func (r *RedisCache) ttl() time.Duration {
	jitter := time.Duration(rand.Int64N(int64(r.baseTTL/5) + 1))
	return r.baseTTL + jitter
}

func productKey(handle string) string {
	return "product:" + handle
}

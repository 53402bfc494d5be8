package session

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

const redisPrefix = "sess:"

// Redis guarda sesiones en redis con TTL nativo. Sobrevive restarts del
// proceso y sirve para múltiples instancias detrás de un balancer.
type Redis struct{ c *rdb.Client }

func NewRedis(addr string, db int) *Redis {
	return &Redis{c: rdb.NewClient(&rdb.Options{Addr: addr, DB: db})}
}

func (r *Redis) Create(ctx context.Context, principalID string, ttl time.Duration) (string, error) {
	tok, err := newToken()
	if err != nil {
		return "", err
	}
	if err := r.c.Set(ctx, redisPrefix+tok, principalID, ttl).Err(); err != nil {
		return "", err
	}
	return tok, nil
}

func (r *Redis) Resolve(ctx context.Context, token string) (string, error) {
	v, err := r.c.Get(ctx, redisPrefix+token).Result()
	if err == rdb.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *Redis) Destroy(ctx context.Context, token string) error {
	return r.c.Del(ctx, redisPrefix+token).Err()
}

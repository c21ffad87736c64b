package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gophauth:session:"

// redisCmdable is the part of *redis.Client the backend uses.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisBackend stores records as plain string keys with a TTL.
type RedisBackend struct {
	client redisCmdable
	closer func() error
}

// RedisOptions mirrors the connection settings in the server config.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedisBackend connects and pings the server.
func OpenRedisBackend(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisBackend{client: client, closer: client.Close}, nil
}

func newRedisBackend(c redisCmdable) *RedisBackend {
	return &RedisBackend{client: c}
}

func (b *RedisBackend) Load(ctx context.Context, id string) (*Serialized, error) {
	v, err := b.client.Get(ctx, redisKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	ser, err := Parse(v)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	return ser, nil
}

func (b *RedisBackend) Save(ctx context.Context, id string, s *Serialized, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := b.client.Set(ctx, redisKeyPrefix+id, s.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	if err := b.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (b *RedisBackend) Close() error {
	if b.closer != nil {
		return b.closer()
	}
	return nil
}

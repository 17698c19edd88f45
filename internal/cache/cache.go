// cache хранит односторонние хэши выданных токенов с TTL.
//
// Именно наличие хэша в кэше делает токен пригодным для авторизации:
// подпись JWT сама по себе недостаточна — отзыв (logout) и ротация (refresh)
// реализованы исключительно перезаписью/удалением записей этого кэша.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenCache — минимальный контракт кэша хэшей токенов.
// Семантика Set — last write wins; Del идемпотентен.
type TokenCache interface {
	// Set сохраняет хэш под ключом. ttl <= 0 означает запись без срока.
	Set(ctx context.Context, key, hash string, ttl time.Duration) error
	// Get возвращает хэш и признак его наличия в кэше.
	Get(ctx context.Context, key string) (string, bool, error)
	// Del удаляет ключ; отсутствие ключа не является ошибкой.
	Del(ctx context.Context, key string) error
	// Close закрывает клиент Redis.
	Close() error
}

// AccessTokenKey — ключ хэша access-токена пользователя.
func AccessTokenKey(userID uuid.UUID) string {
	return userID.String() + ":access_token_hash"
}

// RefreshTokenKey — ключ хэша refresh-токена пользователя.
func RefreshTokenKey(userID uuid.UUID) string {
	return userID.String() + ":refresh_token_hash"
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:user:".
func NewRedisCache(redisURL, prefix string) (TokenCache, error) {
	const op = "cache.NewRedisCache"

	if prefix == "" {
		prefix = "auth:user:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(k string) string { return c.prefix + k }

func (c *redisCache) Set(ctx context.Context, key, hash string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	return c.rdb.Set(ctx, c.key(key), hash, ttl).Err()
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, err
	}

	return val, true, nil
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.key(key)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }

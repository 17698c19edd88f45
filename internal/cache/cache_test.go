package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты кэша хэшей токенов поверх реального Redis
// (testcontainers-go, redis:7-alpine).
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/cache -v -race -count=1

// startRedis — временный экземпляр Redis; без GO_TEST_INTEGRATION тест пропускается.
func startRedis(t *testing.T) TokenCache {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "6379/tcp")

	cache, err := NewRedisCache(fmt.Sprintf("redis://%s:%s/0", host, port.Port()), "")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cache.Close()
		_ = c.Terminate(context.Background())
	})
	return cache
}

func TestIntegration_SetGetDel_RoundTrip(t *testing.T) {
	cache := startRedis(t)
	ctx := context.Background()

	key := AccessTokenKey(uuid.New())

	// До записи ключа нет.
	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, key, "hash-1", 0))

	val, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hash-1", val)

	require.NoError(t, cache.Del(ctx, key))

	_, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	// Повторное удаление идемпотентно.
	require.NoError(t, cache.Del(ctx, key))
}

func TestIntegration_Set_Overwrite(t *testing.T) {
	cache := startRedis(t)
	ctx := context.Background()

	key := RefreshTokenKey(uuid.New())

	// Ротация токена — перезапись хэша: last write wins.
	require.NoError(t, cache.Set(ctx, key, "old-hash", 0))
	require.NoError(t, cache.Set(ctx, key, "new-hash", 0))

	val, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "new-hash", val)
}

func TestIntegration_Set_TTLExpiry(t *testing.T) {
	cache := startRedis(t)
	ctx := context.Background()

	key := AccessTokenKey(uuid.New())

	require.NoError(t, cache.Set(ctx, key, "short-lived", time.Second))

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	// После истечения TTL ключ пропадает, Get возвращает miss без ошибки.
	require.Eventually(t, func() bool {
		_, ok, err := cache.Get(ctx, key)
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}

func TestIntegration_KeysAreIsolatedPerUser(t *testing.T) {
	cache := startRedis(t)
	ctx := context.Background()

	userA, userB := uuid.New(), uuid.New()

	require.NoError(t, cache.Set(ctx, AccessTokenKey(userA), "hash-a", 0))
	require.NoError(t, cache.Set(ctx, AccessTokenKey(userB), "hash-b", 0))

	// Отзыв токенов одного пользователя не трогает другого.
	require.NoError(t, cache.Del(ctx, AccessTokenKey(userA)))

	_, ok, err := cache.Get(ctx, AccessTokenKey(userA))
	require.NoError(t, err)
	require.False(t, ok)

	val, ok, err := cache.Get(ctx, AccessTokenKey(userB))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hash-b", val)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisCache("not-a-redis-url", "")
	require.Error(t, err)
}

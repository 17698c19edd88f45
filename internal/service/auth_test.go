package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pribylovaa/go-friends-service/internal/cache"
	"github.com/pribylovaa/go-friends-service/internal/config"
	"github.com/pribylovaa/go-friends-service/internal/models"
	"github.com/pribylovaa/go-friends-service/internal/storage"
	"github.com/pribylovaa/go-friends-service/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "unit-access-secret",
		RefreshTokenSecret: "unit-refresh-secret",
		AccessTokenTTL:     30 * time.Second,
		RefreshTokenTTL:    24 * time.Hour,
		Issuer:             "friends-service",
	}
}

// memCache — потокобезопасный in-memory кэш для сценарных тестов
// (выпуск -> проверка -> ротация -> logout); TTL здесь не моделируется.
type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemCache() *memCache {
	return &memCache{m: make(map[string]string)}
}

func (c *memCache) Set(_ context.Context, key, hash string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = hash
	return nil
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.TokenCache = (*memCache)(nil)

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *memCache, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	mc := newMemCache()
	svc := New(st, mc, testCfg())
	return svc, st, mc, ctrl
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:     "User@Example.com",
		Password:  "Abcdef1!",
		FirstName: "Alice",
		LastName:  "Doe",
		Age:       30,
	}
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw)
	require.NoError(t, err)
	return h
}

func TestRegisterUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	norm := "user@example.com"

	st.EXPECT().UserByEmail(gomock.Any(), norm).Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	tp, uid, err := svc.RegisterUser(ctx, registerInput())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, uid)
	require.NotEmpty(t, tp.AccessToken)
	require.NotEmpty(t, tp.RefreshToken)
	require.WithinDuration(t, time.Now().Add(svc.cfg.AccessTokenTTL), tp.AccessExpiresAt, 2*time.Second)

	// Свежевыпущенный access-токен сразу проходит полную проверку.
	principal, err := svc.ValidateAccessToken(ctx, tp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, uid, principal.ID)
	require.Equal(t, norm, principal.Email)
}

func TestRegisterUser_InvalidEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	in := registerInput()
	in.Email = "not-an-email"

	_, _, err := svc.RegisterUser(context.Background(), in)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestRegisterUser_WeakOrEmptyPassword(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	in := registerInput()
	in.Password = ""
	_, _, err := svc.RegisterUser(context.Background(), in)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmptyPassword)

	in.Password = "short"
	_, _, err = svc.RegisterUser(context.Background(), in)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegisterUser_EmailAlreadyExists_OnLookup(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Если UserByEmail вернул пользователя (err == nil) — email занят.
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(&models.User{ID: uuid.New(), Email: "user@example.com"}, nil)

	_, _, err := svc.RegisterUser(context.Background(), registerInput())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUser_EmailAlreadyExists_OnSave(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Гонка двух регистраций: lookup не нашёл, insert упёрся в уникальность.
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, _, err := svc.RegisterUser(context.Background(), registerInput())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	pw := "Abcdef1!"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, pw),
	}

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	tp, uid, err := svc.LoginUser(context.Background(), user.Email, pw)
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)
	require.NotEmpty(t, tp.AccessToken)
	require.NotEmpty(t, tp.RefreshToken)
}

func TestLoginUser_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, "Abcdef1!"),
	}

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	_, _, err := svc.LoginUser(context.Background(), user.Email, "Wrong1!pass")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser_UnknownEmail_SameError(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").Return(nil, storage.ErrNotFound)

	// Неизвестный email неотличим от неверного пароля.
	_, _, err := svc.LoginUser(context.Background(), "ghost@example.com", "Abcdef1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout_RevokesAccessToken(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	st.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	tp, uid, err := svc.RegisterUser(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(ctx, tp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, uid))

	// Подпись всё ещё валидна, но хэш удалён — токен отозван.
	_, err = svc.ValidateAccessToken(ctx, tp.AccessToken)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_Idempotent(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Ключей нет — logout всё равно успешен.
	require.NoError(t, svc.Logout(context.Background(), uuid.New()))
}

func TestRefreshTokens_RotatesOldToken(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	pw := "Abcdef1!"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, pw),
	}

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	tp, _, err := svc.LoginUser(ctx, user.Email, pw)
	require.NoError(t, err)

	fresh, uid, err := svc.RefreshTokens(ctx, tp.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)
	require.NotEmpty(t, fresh.AccessToken)
	require.NotEmpty(t, fresh.RefreshToken)

	// Ротация: прежний refresh-токен больше не проходит проверку по кэшу,
	// хотя криптографически остаётся валидным.
	_, _, err = svc.RefreshTokens(ctx, tp.RefreshToken)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokens_MissingToken(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, err := svc.RefreshTokens(context.Background(), "")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestRefreshTokens_AccessTokenRejected(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	st.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	tp, _, err := svc.RegisterUser(ctx, registerInput())
	require.NoError(t, err)

	// Access-токен подписан другим секретом и не годится как refresh.
	_, _, err = svc.RefreshTokens(ctx, tp.AccessToken)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokens_UserGone(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	pw := "Abcdef1!"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, pw),
	}

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(nil, storage.ErrNotFound)

	tp, _, err := svc.LoginUser(ctx, user.Email, pw)
	require.NoError(t, err)

	_, _, err = svc.RefreshTokens(ctx, tp.RefreshToken)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_Expired_LiveCacheEntry(t *testing.T) {
	t.Parallel()

	svc, _, mc, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Email: "user@example.com"}

	// Токен выпущен 2 секунды назад со сроком 1 секунда — уже истёк.
	signed, err := svc.signToken(user, svc.cfg.AccessTokenSecret, time.Second, time.Now().UTC().Add(-2*time.Second))
	require.NoError(t, err)

	// Хэш в кэше ещё жив (кэш без TTL), но истечение срока решает само по себе:
	// состояние кэша не может продлить жизнь токена.
	hash, err := hashToken(signed)
	require.NoError(t, err)
	require.NoError(t, mc.Set(ctx, cache.AccessTokenKey(user.ID), hash, 0))

	_, err = svc.ValidateAccessToken(ctx, signed)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateAccessToken_CacheUnavailable_FailClosed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	// Сначала выпускаем валидный токен через рабочий кэш.
	st := mocks.NewMockStorage(ctrl)
	st.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	issuer := New(st, newMemCache(), testCfg())
	tp, _, err := issuer.RegisterUser(ctx, registerInput())
	require.NoError(t, err)

	// Затем проверяем его через "упавший" кэш: недоступность — это отказ.
	broken := mocks.NewMockTokenCache(ctrl)
	broken.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", false, errors.New("connection refused"))

	guard := New(st, broken, testCfg())
	_, err = guard.ValidateAccessToken(ctx, tp.AccessToken)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokens_CacheUnavailable_FailClosed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	st := mocks.NewMockStorage(ctrl)
	st.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	issuer := New(st, newMemCache(), testCfg())
	tp, _, err := issuer.RegisterUser(ctx, registerInput())
	require.NoError(t, err)

	broken := mocks.NewMockTokenCache(ctrl)
	broken.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", false, errors.New("connection refused"))

	guard := New(st, broken, testCfg())
	_, _, err = guard.RefreshTokens(ctx, tp.RefreshToken)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueTokens_InvalidDuration(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	st.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	cfg := testCfg()
	cfg.AccessTokenTTL = 0

	svc := New(st, newMemCache(), cfg)

	_, _, err := svc.RegisterUser(context.Background(), registerInput())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidDuration)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/pribylovaa/go-friends-service/internal/cache"
	"github.com/pribylovaa/go-friends-service/internal/models"
	"github.com/pribylovaa/go-friends-service/internal/pkg/log"
	"github.com/pribylovaa/go-friends-service/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// RegisterInput — данные регистрации нового пользователя.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Age       int
}

// RegisterUser регистрирует нового пользователя и выпускает пару токенов.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.RegisterUser"

	normEmail, err := validateEmail(in.Email)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(in.Password); err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        normEmail,
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Age:          in.Age,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user.ID, nil
}

// LoginUser выполняет вход по email+пароль.
// Неизвестный email и неверный пароль дают одинаковую ошибку.
func (s *Service) LoginUser(ctx context.Context, email, password string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.LoginUser"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user.ID, nil
}

// Logout удаляет хэши обоих токенов пользователя.
// Операция идемпотентна: отсутствие ключей не является ошибкой.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	const op = "service.auth.Logout"

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.tokens.Del(gctx, cache.AccessTokenKey(userID)) })
	g.Go(func() error { return s.tokens.Del(gctx, cache.RefreshTokenKey(userID)) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RefreshTokens обновляет пару токенов по refresh-токену.
//
// Ротация реализована перезаписью хэшей: после успешного выпуска новой пары
// прежний refresh-токен перестаёт проходить проверку по кэшу, хотя его подпись
// остаётся валидной до истечения срока.
//
// Известное ограничение: два конкурентных refresh с одним и тем же токеном
// могут оба пройти проверку хэша до того, как один из них перезапишет ключ.
// Взаимное исключение вокруг verify-then-overwrite намеренно не вводится —
// запись в кэш атомарна по ключу, выигрывает последняя.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.RefreshTokens"

	lg := log.From(ctx)

	if refreshToken == "" {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrMissingToken)
	}

	claims, err := s.parseToken(refreshToken, s.cfg.RefreshTokenSecret)
	if err != nil {
		// Конкретная причина (подпись/срок/формат) наружу не уходит.
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	userID := uuid.MustParse(claims.UserID)

	storedHash, ok, err := s.tokens.Get(ctx, cache.RefreshTokenKey(userID))
	if err != nil {
		// Fail closed: недоступность кэша не может сделать токен валидным.
		lg.Error("token_cache_unavailable",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if !ok {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	match, err := verifyTokenHash(storedHash, refreshToken)
	if err != nil || !match {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user.ID, nil
}

// ValidateAccessToken проверяет access-токен по двум критериям:
// криптографическая валидность (подпись + срок) и наличие совпадающего
// хэша в кэше. Оба обязаны выполниться — иначе токен недействителен.
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (models.Principal, error) {
	const op = "service.auth.ValidateAccessToken"

	lg := log.From(ctx)

	claims, err := s.parseToken(accessToken, s.cfg.AccessTokenSecret)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%s: %w", op, err)
	}

	userID := uuid.MustParse(claims.UserID)

	storedHash, ok, err := s.tokens.Get(ctx, cache.AccessTokenKey(userID))
	if err != nil {
		// Fail closed: при недоступном кэше авторизация не проходит.
		lg.Error("token_cache_unavailable",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return models.Principal{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if !ok {
		return models.Principal{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	match, err := verifyTokenHash(storedHash, accessToken)
	if err != nil || !match {
		return models.Principal{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return models.Principal{ID: userID, Email: claims.Email}, nil
}

// issueTokens выпускает новую пару access+refresh токенов и записывает
// их хэши в кэш. Подписание независимо и выполняется конкурентно;
// неуспех любой из подписей отменяет выпуск целиком.
func (s *Service) issueTokens(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.auth.issueTokens"

	if s.cfg.AccessTokenTTL <= 0 || s.cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidDuration)
	}

	now := time.Now().UTC()

	var accessToken, refreshToken string

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.signToken(user, s.cfg.AccessTokenSecret, s.cfg.AccessTokenTTL, now)
		accessToken = t
		return err
	})
	g.Go(func() error {
		t, err := s.signToken(user, s.cfg.RefreshTokenSecret, s.cfg.RefreshTokenTTL, now)
		refreshToken = t
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accessHash, err := hashToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshHash, err := hashToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Хэш access-токена живёт ровно срок самого токена;
	// хэш refresh-токена — до перезаписи следующим refresh или logout.
	if err := s.tokens.Set(ctx, cache.AccessTokenKey(user.ID), accessHash, s.cfg.AccessTokenTTL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokens.Set(ctx, cache.RefreshTokenKey(user.ID), refreshHash, 0); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// hashPassword хэширует пароль с помощью bcrypt (соль встроена).
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю.
// Политика по умолчанию: длина >= 8, хотя бы одна строчная, заглавная, цифра и спецсимвол.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}

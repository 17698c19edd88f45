// service содержит бизнес-логику сервиса:
// регистрацию/аутентификацию пользователей, выпуск/проверку/ротацию токенов,
// поиск пользователей и работу с заявками в друзья.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданные хранилище (storage.Storage) и кэш (cache.TokenCache)
//     потокобезопасны.
//   - Ошибки возвращаются сентинелами и далее маппятся HTTP-слоем
//     на статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/go-friends-service/internal/cache"
	"github.com/pribylovaa/go-friends-service/internal/config"
	"github.com/pribylovaa/go-friends-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Формулировка едина для обоих случаев, чтобы не допускать перебор аккаунтов.
	// HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи
	// или его хэш отсутствует/не совпадает в кэше. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrMissingToken — refresh-токен не передан ни в теле, ни в cookie.
	// HTTP 400.
	ErrMissingToken = errors.New("refresh token is required")

	// ErrEmailTaken — e-mail уже занят другим пользователем.
	// Регистрация обязана сообщать о занятости (бизнес-правило уникальности).
	// HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политикам сложности. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrInvalidDuration — сконфигурированный TTL токена не положителен.
	// Сигнал дефекта деплоя, а не ошибки клиента. HTTP 500.
	ErrInvalidDuration = errors.New("invalid token ttl")

	// ErrInvalidArgument — некорректные параметры запроса (page/limit и т.п.).
	// HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound — пользователь/заявка не найдены. HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrSelfFriendRequest — заявка в друзья самому себе. HTTP 400.
	ErrSelfFriendRequest = errors.New("cannot send friend request to yourself")

	// ErrFriendRequestExists — заявка между пользователями уже существует
	// (в любом направлении). HTTP 409.
	ErrFriendRequestExists = errors.New("friend request already exists")

	// ErrAlreadyFriends — пользователи уже друзья. HTTP 409.
	ErrAlreadyFriends = errors.New("already friends")
)

// Service описывает бизнес-логику сервиса.
type Service struct {
	storage storage.Storage
	tokens  cache.TokenCache
	cfg     config.AuthConfig
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, tokens cache.TokenCache, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		tokens:  tokens,
		cfg:     cfg,
	}
}

package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/go-friends-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (пользователь/заявка).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/заявка/дружба).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ListUsers возвращает страницу пользователей с опциональным поиском
	// по email/имени/фамилии (а для числового запроса — по возрасту)
	// и общее количество совпадений.
	ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error)
}

// FriendStorage выполняет операции над заявками в друзья и дружбами.
type FriendStorage interface {
	// SaveFriendRequest сохраняет новую заявку в друзья.
	SaveFriendRequest(ctx context.Context, req *models.FriendRequest) error
	// FriendRequestByID находит заявку по её ID.
	FriendRequestByID(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error)
	// PendingRequests возвращает входящие заявки пользователя вместе
	// с данными отправителей.
	PendingRequests(ctx context.Context, receiverID uuid.UUID) ([]models.PendingRequest, error)
	// HasPendingRequest проверяет наличие заявки между двумя пользователями
	// в любом направлении.
	HasPendingRequest(ctx context.Context, a, b uuid.UUID) (bool, error)
	// AreFriends проверяет наличие дружбы между двумя пользователями.
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
	// AcceptFriendRequest в одной транзакции создает дружбу и удаляет заявку.
	AcceptFriendRequest(ctx context.Context, requestID uuid.UUID) error
	// DeleteFriendRequest удаляет заявку, адресованную receiverID.
	// Возвращает false, если такой заявки нет.
	DeleteFriendRequest(ctx context.Context, requestID, receiverID uuid.UUID) (bool, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	FriendStorage
	Close()
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendRequest — заявка в друзья (sender -> receiver), ожидающая решения.
type FriendRequest struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	CreatedAt  time.Time
}

// PendingRequest — входящая заявка вместе с данными отправителя
// (join friend_requests + users на стороне БД).
type PendingRequest struct {
	RequestID uuid.UUID
	SenderID  uuid.UUID
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// Friendship — подтверждённая дружба двух пользователей.
type Friendship struct {
	UserID1   uuid.UUID
	UserID2   uuid.UUID
	CreatedAt time.Time
}

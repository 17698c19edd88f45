package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/go-friends-service/internal/models"
	"github.com/pribylovaa/go-friends-service/internal/storage"

	"github.com/google/uuid"
)

// ListUsers возвращает страницу пользователей с опциональным поиском.
// page и limit считаются с единицы; неположительные значения — ошибка клиента.
func (s *Service) ListUsers(ctx context.Context, search string, page, limit int) (*models.UserPage, error) {
	const op = "service.users.ListUsers"

	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	offset := (page - 1) * limit

	users, total, err := s.storage.ListUsers(ctx, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &models.UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// PendingRequests возвращает входящие заявки пользователя в друзья.
func (s *Service) PendingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	const op = "service.users.PendingRequests"

	reqs, err := s.storage.PendingRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reqs, nil
}

// SendFriendRequest создает заявку в друзья от senderID к receiverID.
func (s *Service) SendFriendRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	const op = "service.users.SendFriendRequest"

	if senderID == receiverID {
		return fmt.Errorf("%s: %w", op, ErrSelfFriendRequest)
	}

	if _, err := s.storage.UserByID(ctx, receiverID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	pending, err := s.storage.HasPendingRequest(ctx, senderID, receiverID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if pending {
		return fmt.Errorf("%s: %w", op, ErrFriendRequestExists)
	}

	friends, err := s.storage.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if friends {
		return fmt.Errorf("%s: %w", op, ErrAlreadyFriends)
	}

	req := &models.FriendRequest{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.storage.SaveFriendRequest(ctx, req); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return fmt.Errorf("%s: %w", op, ErrFriendRequestExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AcceptFriendRequest принимает заявку: дружба создаётся, заявка удаляется
// (одна транзакция на стороне хранилища). Принять можно только заявку,
// адресованную самому пользователю.
func (s *Service) AcceptFriendRequest(ctx context.Context, userID, requestID uuid.UUID) error {
	const op = "service.users.AcceptFriendRequest"

	req, err := s.storage.FriendRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if req.ReceiverID != userID {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if err := s.storage.AcceptFriendRequest(ctx, requestID); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		case errors.Is(err, storage.ErrAlreadyExists):
			return fmt.Errorf("%s: %w", op, ErrAlreadyFriends)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeclineFriendRequest отклоняет (удаляет) заявку, адресованную пользователю.
func (s *Service) DeclineFriendRequest(ctx context.Context, userID, requestID uuid.UUID) error {
	const op = "service.users.DeclineFriendRequest"

	deleted, err := s.storage.DeleteFriendRequest(ctx, requestID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !deleted {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

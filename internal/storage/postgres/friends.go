package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-friends-service/internal/models"
	"github.com/pribylovaa/go-friends-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SaveFriendRequest сохраняет новую заявку в друзья.
func (s *Storage) SaveFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	const op = "storage.postgres.SaveFriendRequest"

	query := `
		INSERT INTO friend_requests(id, sender_id, receiver_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.Exec(ctx, query, req.ID, req.SenderID, req.ReceiverID, req.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// FriendRequestByID находит заявку по её ID.
func (s *Storage) FriendRequestByID(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	const op = "storage.postgres.FriendRequestByID"

	query := `
		SELECT id, sender_id, receiver_id, created_at
		FROM friend_requests
		WHERE id = $1
	`

	var req models.FriendRequest
	err := s.db.QueryRow(ctx, query, id).Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &req, nil
}

// PendingRequests возвращает входящие заявки пользователя с данными отправителей.
func (s *Storage) PendingRequests(ctx context.Context, receiverID uuid.UUID) ([]models.PendingRequest, error) {
	const op = "storage.postgres.PendingRequests"

	query := `
		SELECT fr.id, fr.sender_id, u.email, u.first_name, u.last_name, fr.created_at
		FROM friend_requests fr
		JOIN users u ON u.id = fr.sender_id
		WHERE fr.receiver_id = $1
		ORDER BY fr.created_at, fr.id
	`

	rows, err := s.db.Query(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var reqs []models.PendingRequest
	for rows.Next() {
		var r models.PendingRequest
		if err := rows.Scan(&r.RequestID, &r.SenderID, &r.Email, &r.FirstName, &r.LastName, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		reqs = append(reqs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reqs, nil
}

// HasPendingRequest проверяет наличие заявки между пользователями в любом направлении.
func (s *Storage) HasPendingRequest(ctx context.Context, a, b uuid.UUID) (bool, error) {
	const op = "storage.postgres.HasPendingRequest"

	query := `
		SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE (sender_id = $1 AND receiver_id = $2)
			   OR (sender_id = $2 AND receiver_id = $1)
		)
	`

	var exists bool
	if err := s.db.QueryRow(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// AreFriends проверяет наличие дружбы между пользователями.
func (s *Storage) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	const op = "storage.postgres.AreFriends"

	query := `
		SELECT EXISTS(
			SELECT 1 FROM friends
			WHERE (user_id_1 = $1 AND user_id_2 = $2)
			   OR (user_id_1 = $2 AND user_id_2 = $1)
		)
	`

	var exists bool
	if err := s.db.QueryRow(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// AcceptFriendRequest в одной транзакции создает дружбу и удаляет заявку.
// Заявка читается внутри транзакции, чтобы конкурирующие accept/decline
// не породили дружбу по уже удалённой заявке.
func (s *Storage) AcceptFriendRequest(ctx context.Context, requestID uuid.UUID) error {
	const op = "storage.postgres.AcceptFriendRequest"

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var senderID, receiverID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT sender_id, receiver_id FROM friend_requests WHERE id = $1 FOR UPDATE`,
		requestID,
	).Scan(&senderID, &receiverID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO friends(user_id_1, user_id_2, created_at) VALUES ($1, $2, now())`,
		senderID, receiverID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, requestID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteFriendRequest удаляет заявку, адресованную receiverID.
func (s *Storage) DeleteFriendRequest(ctx context.Context, requestID, receiverID uuid.UUID) (bool, error) {
	const op = "storage.postgres.DeleteFriendRequest"

	tag, err := s.db.Exec(ctx,
		`DELETE FROM friend_requests WHERE id = $1 AND receiver_id = $2`,
		requestID, receiverID,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected() > 0, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя в системе.
// PasswordHash хранится только в БД и никогда не сериализуется наружу.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Age          int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal — аутентифицированный субъект запроса.
// Кладётся в контекст guard-мидлваром после успешной проверки access-токена.
type Principal struct {
	ID    uuid.UUID
	Email string
}

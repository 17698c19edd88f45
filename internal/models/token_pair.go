package models

import "time"

// TokenPair — пара токенов, выдаваемая при аутентификации/регистрации/refresh.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, предъявляемый для выпуска новой пары;
//     на сервере хранится только его одноcторонний хэш;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
//
// Пара возвращается вызывающему один раз и в исходном виде нигде не хранится.
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — JWT для обновления пары.
	RefreshToken string
	// AccessExpiresAt — время истечения действия access-токена (UTC).
	AccessExpiresAt time.Time
}

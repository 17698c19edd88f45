package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-friends-service/internal/models"
	"github.com/pribylovaa/go-friends-service/internal/service"
	"github.com/pribylovaa/go-friends-service/internal/transport/http/apierrors"
)

// AccessTokenCookie — имя cookie с access-токеном (fallback после заголовка).
const AccessTokenCookie = "accessToken"

type principalKey struct{}

// TokenValidator — контракт проверки access-токена.
// Реализуется service.Service; в тестах подменяется стабом.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (models.Principal, error)
}

// PrincipalFrom достаёт аутентифицированного субъекта из контекста запроса.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(models.Principal)
	return p, ok
}

// Authenticate — guard защищённых маршрутов.
//
// Алгоритм:
//  1. извлечь токен: Authorization: Bearer <token>, иначе cookie accessToken;
//  2. проверить токен (подпись/срок + хэш в кэше) через validator;
//  3. положить Principal в контекст и пропустить запрос дальше.
//
// Любой отказ — единый 401 без уточнения причины. Маршруты без этого
// мидлвара объявляются публичными явно, на уровне таблицы роутинга.
func Authenticate(validator TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			principal, err := validator.ValidateAccessToken(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken — заголовок Authorization имеет приоритет над cookie.
// Заголовок учитывается только со схемой Bearer; любая другая схема
// (Basic и т.п.) игнорируется, и поиск продолжается в cookie.
func extractToken(r *http.Request) string {
	const prefix = "Bearer "
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}

	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}

	return ""
}

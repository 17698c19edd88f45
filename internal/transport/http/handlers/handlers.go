package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pribylovaa/go-friends-service/internal/config"
	"github.com/pribylovaa/go-friends-service/internal/models"
	"github.com/pribylovaa/go-friends-service/internal/service"
)

// Имена auth-кук. Значения токенов живут только в HttpOnly-куках и в JSON-ответе
// выпуска; сервер хранит лишь их односторонние хэши.
const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	svc     *service.Service
	auth    config.AuthConfig
	cookies config.CookieConfig
}

func New(svc *service.Service, auth config.AuthConfig, cookies config.CookieConfig) *Handlers {
	return &Handlers{svc: svc, auth: auth, cookies: cookies}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// setAuthCookies выставляет accessToken/refreshToken куки с MaxAge,
// равным TTL соответствующего токена. Размещение токенов в куках —
// ответственность этого слоя; бизнес-логика ничего не знает про HTTP.
func (h *Handlers) setAuthCookies(w http.ResponseWriter, pair *models.TokenPair) {
	http.SetCookie(w, h.authCookie(accessTokenCookie, pair.AccessToken, h.auth.AccessTokenTTL))
	http.SetCookie(w, h.authCookie(refreshTokenCookie, pair.RefreshToken, h.auth.RefreshTokenTTL))
}

// clearAuthCookies стирает обе auth-куки.
func (h *Handlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.authCookie(accessTokenCookie, "", -time.Second))
	http.SetCookie(w, h.authCookie(refreshTokenCookie, "", -time.Second))
}

func (h *Handlers) authCookie(name, value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

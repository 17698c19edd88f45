package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-friends-service/internal/config"
	"github.com/pribylovaa/go-friends-service/internal/service"
	"github.com/pribylovaa/go-friends-service/internal/transport/http/handlers"
	"github.com/pribylovaa/go-friends-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	Auth    config.AuthConfig
	Cookies config.CookieConfig
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
//
// Деление на public/protected — статическое свойство таблицы маршрутов:
// guard-мидлвар навешивается на защищённую группу целиком, по умолчанию
// новый маршрут попадает под защиту.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc, opts.Auth, opts.Cookies)

	// Публичные маршруты: выпуск/обновление токенов.
	root.Group(func(r chi.Router) {
		r.Post("/auth/register", h.RegisterUser)
		r.Post("/auth/login", h.LoginUser)
		r.Post("/auth/refresh", h.RefreshToken)
	})

	// Защищённые маршруты: всё остальное за guard-мидлваром.
	root.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(svc))

		r.Post("/auth/logout", h.Logout)

		r.Get("/users", h.ListUsers)
		r.Get("/users/friends/requests", h.PendingRequests)
		r.Post("/users/friends/{id}", h.SendFriendRequest)
		r.Post("/users/friends/accept", h.AcceptFriendRequest)
		r.Post("/users/friends/decline", h.DeclineFriendRequest)
	})

	return root
}

// Package api собирает HTTP-приложение PMS: маршруты, middleware и зависимости.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/pms-backend/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/pms-backend/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/pms-backend/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/pms-backend/internal/http/handlers/users/autocomplete"
	"github.com/magabrotheeeer/pms-backend/internal/http/handlers/users/list"
	"github.com/magabrotheeeer/pms-backend/internal/http/handlers/users/read"
	"github.com/magabrotheeeer/pms-backend/internal/http/handlers/users/update"
	"github.com/magabrotheeeer/pms-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pms-backend/internal/metrics"
	"github.com/magabrotheeeer/pms-backend/internal/services/auth"
	"github.com/magabrotheeeer/pms-backend/internal/services/users"
)

// Deps: зависимости маршрутов.
type Deps struct {
	Auth     *auth.Service
	Users    *users.Service
	Resolver middlewarectx.TokenResolver // разбор bearer‑токенов, локальный или по gRPC
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	AllowedOrigins []string
	Secure         bool // https в ссылках пагинации
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		d.Metrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Администратор, зарегистрировавший пользователя, передаётся через токен.
			r.With(middlewarectx.OptionalJWTMiddleware(d.Resolver, logger)).
				Post("/register/", register.New(logger, d.Auth, d.Metrics).ServeHTTP)
			r.Post("/login/", login.New(logger, d.Auth, d.Metrics).ServeHTTP)
			r.Post("/me/", me.New(logger, d.Auth, d.Metrics).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Resolver, logger))
			r.Get("/", list.New(logger, d.Users, d.Secure).ServeHTTP)
			r.Get("/autocomplete/", autocomplete.New(logger, d.Users).ServeHTTP)
			r.Get("/{uuid}/", read.New(logger, d.Users).ServeHTTP)
			r.Patch("/{uuid}/", update.New(logger, d.Users).ServeHTTP)
		})
	})

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

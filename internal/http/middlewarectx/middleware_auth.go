// Package middlewarectx содержит HTTP middleware аутентификации по bearer‑токену.
//
// Middleware разбирает заголовок Authorization, разрешает токен в пользователя
// через TokenResolver и кладёт его в контекст запроса. Обработчики получают
// автора запроса явно через Actor.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pms-backend/internal/http/response"
	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// ActorKey: ключ пользователя, выполняющего запрос.
const ActorKey Key = "actor"

const bearerPrefix = "Bearer "

// MsgNotProvided: текст ответа при отсутствии токена на защищённом маршруте.
const MsgNotProvided = "Authentication credentials were not provided."

// TokenResolver разрешает access‑токен в пользователя.
type TokenResolver interface {
	GetUserData(ctx context.Context, token string) (*models.User, error)
}

// WithActor возвращает контекст с пользователем, выполняющим запрос.
func WithActor(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ActorKey, u)
}

// Actor возвращает пользователя из контекста или nil для анонимного запроса.
func Actor(ctx context.Context) *models.User {
	u, _ := ctx.Value(ActorKey).(*models.User)
	return u
}

// JWTMiddleware требует валидный bearer‑токен.
func JWTMiddleware(resolver TokenResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return authenticate(resolver, log, true)
}

// OptionalJWTMiddleware пропускает анонимные запросы, но отклоняет запросы
// с невалидным токеном.
func OptionalJWTMiddleware(resolver TokenResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return authenticate(resolver, log, false)
}

func authenticate(resolver TokenResolver, log *slog.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				log.Info("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(MsgNotProvided))
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))

			user, err := resolver.GetUserData(r.Context(), token)
			if err != nil {
				log.Info("token rejected", sl.Err(err))
				msg := "invalid or expired token"
				var authErr *auth.Error
				if errors.As(err, &authErr) {
					msg = authErr.Message
				}
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(msg))
				return
			}
			if !userAllowed(log, w, r, user) {
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), user)))
		})
	}
}

// Package login реализует HTTP-обработчик входа по email и паролю.
//
// Тело принимается как JSON или form. При успехе в data возвращается
// access‑токен, при ошибке {message} со статусом из таксономии аутентификации.
package login

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pms-backend/internal/http/handlers/auth/autherr"
	"github.com/magabrotheeeer/pms-backend/internal/http/request"
	"github.com/magabrotheeeer/pms-backend/internal/http/response"
	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/metrics"
)

// Request: учётные данные для входа.
type Request struct {
	Email    string `json:"email" example:"john@example.com"`
	Password string `json:"password" example:"secret"`
}

// Service описывает вход пользователя.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Handler обрабатывает HTTP-запросы на вход.
type Handler struct {
	log     *slog.Logger
	service Service
	metrics *metrics.Metrics
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, m *metrics.Metrics) *Handler {
	return &Handler{
		log:     log,
		service: service,
		metrics: m,
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет email и пароль и возвращает JWT access‑токен.
// @Tags Authentication
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param request body Request true "Учетные данные"
// @Success 200 {object} response.Response "Successfully logged in"
// @Failure 400 {object} response.ErrorResponse "Email and password are required."
// @Failure 401 {object} response.ErrorResponse "Invalid credentials"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/auth/login/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := request.Decode(r)
	if err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(request.ErrInvalidBody.Error()))
		return
	}
	email := body.String("email")

	token, err := h.service.Login(r.Context(), email, body.String("password"))
	if err != nil {
		outcome := autherr.Write(w, r, log, err)
		h.metrics.AuthEvent(metrics.OpLogin, outcome)
		return
	}

	h.metrics.AuthEvent(metrics.OpLogin, metrics.OutcomeSuccess)
	log.Info("login success", slog.String("email", email))
	render.JSON(w, r, response.OK("Successfully logged in", token))
}

// Package me реализует HTTP-обработчик, возвращающий профиль владельца токена.
package me

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
	"github.com/magabrotheeeer/pms-backend/internal/models"
)

// Request: токен, который нужно разобрать.
type Request struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// Service разбирает токен в пользователя.
type Service interface {
	GetUserData(ctx context.Context, token string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы профиля по токену.
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
// @Summary Данные пользователя по токену
// @Description Проверяет access‑токен и возвращает профиль пользователя.
// @Tags Authentication
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param request body Request true "Токен"
// @Success 200 {object} response.Response{data=models.Profile} "Successfully fetched user data"
// @Failure 400 {object} response.ErrorResponse "No token Provided"
// @Router /users/auth/me/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

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

	user, err := h.service.GetUserData(r.Context(), body.String("token"))
	if err != nil {
		h.metrics.AuthEvent(metrics.OpToken, autherr.Write(w, r, log, err))
		return
	}

	h.metrics.AuthEvent(metrics.OpToken, metrics.OutcomeSuccess)
	render.JSON(w, r, response.OK("Successfully fetched user data", user.Profile()))
}

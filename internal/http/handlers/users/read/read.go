// Package read реализует HTTP-обработчик получения профиля по UUID.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/pms-backend/internal/http/response"
	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/services/users"
)

// Service описывает чтение профиля.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Handler обрабатывает запросы на получение профиля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Профиль пользователя
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "UUID пользователя"
// @Success 200 {object} response.Response{data=models.Profile} "Fetched successfully"
// @Failure 404 {object} response.ErrorResponse "Not found."
// @Router /users/{uuid}/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		log.Info("invalid uuid in url", sl.Err(err))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(users.ErrNotFound.Error()))
		return
	}

	profile, err := h.service.Get(r.Context(), id)
	if errors.Is(err, users.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	if err != nil {
		log.Error("failed to read user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OK("Fetched successfully", profile))
}

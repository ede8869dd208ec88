// Package update реализует HTTP-обработчик частичного обновления профиля.
package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/pms-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pms-backend/internal/http/request"
	"github.com/magabrotheeeer/pms-backend/internal/http/response"
	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/services/users"
)

// Request: изменяемые поля профиля, отсутствующие поля не меняются.
type Request struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Contact   *string `json:"contact" validate:"omitempty,max=15"`
}

// Service описывает обновление профиля.
type Service interface {
	Update(ctx context.Context, actor *models.User, id uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error)
}

// Handler обрабатывает запросы на обновление профиля.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: request.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Обновление профиля
// @Description Менять профиль может сам пользователь или администратор.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "UUID пользователя"
// @Param request body Request true "Поля профиля"
// @Success 200 {object} response.Response{data=models.Profile} "Updated successfully"
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /users/{uuid}/ [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.update"

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

	body, err := request.Decode(r)
	if err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(request.ErrInvalidBody.Error()))
		return
	}
	req := Request{
		FirstName: body.Optional("first_name"),
		LastName:  body.Optional("last_name"),
		Contact:   body.Optional("contact"),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	actor := middlewarectx.Actor(r.Context())
	profile, err := h.service.Update(r.Context(), actor, id, models.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Contact:   req.Contact,
	})
	switch {
	case errors.Is(err, users.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, users.ErrForbidden):
		log.Warn("update forbidden", slog.String("uuid", id.String()))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("failed to update user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OK("Updated successfully", profile))
}

// Package autocomplete реализует HTTP-обработчик подсказок по пользователям.
package autocomplete

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pms-backend/internal/http/response"
	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/models"
)

// Result: ответ автодополнения.
type Result struct {
	Results []models.AutocompleteItem `json:"results"`
}

// Service описывает поиск подсказок.
type Service interface {
	Autocomplete(ctx context.Context, search string) ([]models.AutocompleteItem, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Автодополнение пользователей
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Строка поиска"
// @Success 200 {object} Result
// @Router /users/autocomplete/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.autocomplete"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	items, err := h.service.Autocomplete(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		log.Error("failed to autocomplete users", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	if items == nil {
		items = []models.AutocompleteItem{}
	}
	render.JSON(w, r, Result{Results: items})
}

// Package list реализует HTTP-обработчик списка профилей с поиском и
// limit/offset пагинацией.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pms-backend/internal/http/pagination"
	"github.com/magabrotheeeer/pms-backend/internal/http/response"
	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/services/users"
)

const fetched = "Fetched successfully"

// Service описывает выборку профилей.
type Service interface {
	List(ctx context.Context, f models.UserFilter) (*users.ProfilePage, error)
}

// Handler обрабатывает запросы списка пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
	secure  bool // https в ссылках next/previous
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secure bool) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secure:  secure,
	}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Возвращает профили, отсортированные по времени изменения.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Слова для поиска по имени, фамилии, email и телефону"
// @Param limit query int false "Размер страницы" default(10)
// @Param offset query int false "Смещение"
// @Param no_pagination query bool false "Вернуть все записи без пагинации"
// @Success 200 {object} response.Page{data=[]models.Profile} "Fetched successfully"
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /users/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p := pagination.Parse(r)
	f := models.UserFilter{Search: r.URL.Query().Get("search")}
	if !p.Disabled {
		f.Limit, f.Offset = p.Limit, p.Offset
	}

	page, err := h.service.List(r.Context(), f)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	log.Debug("users listed", slog.Int("count", page.Count))

	if p.Disabled {
		render.JSON(w, r, response.OK(fetched, page.Profiles))
		return
	}
	next, previous := pagination.Links(r, p, page.Count, h.secure)
	render.JSON(w, r, response.Page{
		Message:  fetched,
		Count:    page.Count,
		Next:     next,
		Previous: previous,
		Data:     page.Profiles,
	})
}

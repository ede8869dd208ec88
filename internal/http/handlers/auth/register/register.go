// Package register реализует HTTP-обработчик регистрации пользователя.
package register

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/pms-backend/internal/http/handlers/auth/autherr"
	"github.com/magabrotheeeer/pms-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pms-backend/internal/http/request"
	"github.com/magabrotheeeer/pms-backend/internal/http/response"
	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/metrics"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/services/auth"
)

// Request: поля профиля нового пользователя. Пароль читается из тела отдельно,
// так как может прийти списком.
type Request struct {
	Email     string `json:"email" validate:"required,email,max=254" example:"john@example.com"`
	FirstName string `json:"first_name" validate:"max=50" example:"John"`
	LastName  string `json:"last_name" validate:"max=50" example:"Doe"`
	Contact   string `json:"contact" validate:"max=15" example:"9800000000"`
	Password  string `json:"password" validate:"-" example:"secret"`
}

// Service описывает регистрацию пользователя.
type Service interface {
	Register(ctx context.Context, actor *models.User, in auth.RegisterInput) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы на регистрацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, m *metrics.Metrics) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		metrics:  m,
		validate: request.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создаёт активного пользователя и возвращает его профиль.
// @Description Если запрос выполняет администратор, last_login остаётся пустым.
// @Tags Authentication
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} response.Response{data=models.Profile} "User created successfully"
// @Failure 400 {object} response.ErrorResponse "Password is required"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/auth/register/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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

	// Пароль проверяется до полей профиля.
	req := Request{
		Email:     body.String("email"),
		FirstName: body.String("first_name"),
		LastName:  body.String("last_name"),
		Contact:   body.String("contact"),
		Password:  body.String("password"),
	}
	if req.Password == "" {
		h.metrics.AuthEvent(metrics.OpRegister, autherr.Write(w, r, log, auth.ErrPasswordRequired))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		h.metrics.AuthEvent(metrics.OpRegister, metrics.OutcomeRejected)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	actor := middlewarectx.Actor(r.Context())
	user, err := h.service.Register(r.Context(), actor, auth.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Contact:   req.Contact,
		Password:  req.Password,
	})
	if err != nil {
		h.metrics.AuthEvent(metrics.OpRegister, autherr.Write(w, r, log, err))
		return
	}

	h.metrics.AuthEvent(metrics.OpRegister, metrics.OutcomeSuccess)
	log.Info("user registered", slog.String("uuid", user.UUID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK("User created successfully", user.Profile()))
}

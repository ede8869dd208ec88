package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pms-backend/internal/http/response"
	"github.com/magabrotheeeer/pms-backend/internal/models"
)

// MsgUserInactive: текст ответа для отключённой или архивной учётной записи.
const MsgUserInactive = "User is inactive"

// userAllowed проверяет статус учётной записи после разбора токена.
// Токен, выпущенный до отключения пользователя, перестаёт действовать сразу.
func userAllowed(log *slog.Logger, w http.ResponseWriter, r *http.Request, user *models.User) bool {
	if user.IsActive && !user.Archive {
		return true
	}
	log.Info("inactive user rejected",
		slog.Int64("user_id", user.ID),
		slog.Bool("is_active", user.IsActive),
		slog.Bool("archive", user.Archive),
	)
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(MsgUserInactive))
	return false
}

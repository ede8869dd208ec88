// Package autherr переводит ошибки сервиса аутентификации в HTTP‑ответы.
package autherr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pms-backend/internal/http/response"
	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/metrics"
	"github.com/magabrotheeeer/pms-backend/internal/services/auth"
)

// Write отправляет клиенту ответ по ошибке err и возвращает исход для метрик.
// *auth.Error уходит со своим статусом и текстом, остальные ошибки дают 500.
func Write(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) string {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		log.Error("internal error", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return metrics.OutcomeError
	}

	log.Info("request rejected", slog.String("code", string(authErr.Code)), sl.Err(err))
	render.Status(r, authErr.Status)
	if len(authErr.Fields) > 0 {
		render.JSON(w, r, response.FieldErrors(authErr.Fields))
	} else {
		render.JSON(w, r, response.Error(authErr.Message))
	}
	if authErr.Code == auth.CodeUnexpected {
		return metrics.OutcomeError
	}
	return metrics.OutcomeRejected
}

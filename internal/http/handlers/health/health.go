// Package health реализует проверку живости сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
)

// Pinger проверяет доступность хранилища.
type Pinger interface {
	CheckDatabaseReady(ctx context.Context) error
}

type Handler struct {
	log    *slog.Logger
	pinger Pinger
}

func New(log *slog.Logger, pinger Pinger) *Handler {
	return &Handler{
		log:    log,
		pinger: pinger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if err := h.pinger.CheckDatabaseReady(r.Context()); err != nil {
		h.log.Error("health check failed", slog.String("op", op), sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error(response.KindInternal, "storage is not ready"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": "ok",
	}))
}

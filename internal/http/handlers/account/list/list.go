// Package list реализует HTTP-обработчик списка VPN-аккаунтов пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Handler обрабатывает запросы списка аккаунтов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка аккаунтов.
type Service interface {
	Accounts(ctx context.Context, telegramID int64) ([]*models.ProvisionedAccount, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список VPN-аккаунтов
// @Description Возвращает выданные аккаунты пользователя, включая истёкшие.
// @Tags Accounts
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Список аккаунтов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /accounts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.list.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	telegramID, ok := middlewarectx.TelegramIDFromContext(r.Context())
	if !ok {
		log.Error("missing telegram_id in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.KindVerification, "not authenticated"))
		return
	}

	accounts, err := h.service.Accounts(r.Context(), telegramID)
	if err != nil {
		log.Error("failed to list accounts", sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"accounts": accounts,
	}))
}

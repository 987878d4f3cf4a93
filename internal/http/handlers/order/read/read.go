// Package read реализует HTTP-обработчик получения заказа по ID.
//
// Handler извлекает ID из URL-параметров и возвращает заказ владельца вместе
// с названием плана и, для подтверждённых заказов, реквизитами аккаунта.
package read

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Handler обрабатывает запросы получения заказа по ID.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения заказа.
type Service interface {
	Get(ctx context.Context, telegramID, orderID int64) (*models.OrderInfo, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить заказ
// @Description Возвращает заказ владельца. Для подтверждённых заказов ответ содержит реквизиты аккаунта.
// @Tags Orders
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID заказа"
// @Success 200 {object} response.Response "Заказ"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Router /orders/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.read.ServeHTTP"

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

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.KindValidation, "invalid order id"))
		return
	}

	info, err := h.service.Get(r.Context(), telegramID, orderID)
	if err != nil {
		log.Error("failed to read order", sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order": info,
	}))
}

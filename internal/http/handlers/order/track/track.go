// Package track реализует HTTP-обработчик статуса заказа по публичному токену.
//
// Токен выдаётся при создании заказа и позволяет проверить статус по прямой
// ссылке без сессии: сам токен неугадываем и служит предъявителю пропуском.
package track

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Handler обрабатывает запросы статуса заказа по токену.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики поиска заказа по токену.
type Service interface {
	Track(ctx context.Context, token string) (*models.OrderInfo, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статус заказа по публичному токену
// @Description Возвращает заказ по токену из ссылки, без авторизации. Для подтверждённых заказов ответ содержит реквизиты аккаунта.
// @Tags Orders
// @Produce  json
// @Param token path string true "Публичный токен заказа"
// @Success 200 {object} response.Response "Заказ"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Router /orders/track/{token} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.track.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := chi.URLParam(r, "token")
	if token == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.KindValidation, "missing order token"))
		return
	}

	info, err := h.service.Track(r.Context(), token)
	if err != nil {
		log.Error("failed to track order", sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order": info,
	}))
}

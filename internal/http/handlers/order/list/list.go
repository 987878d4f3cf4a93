// Package list реализует HTTP-обработчик истории заказов пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler обрабатывает запросы истории заказов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка заказов.
type Service interface {
	List(ctx context.Context, telegramID int64, limit, offset int) ([]*models.OrderInfo, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История заказов
// @Description Возвращает заказы пользователя с пагинацией, новые сверху.
// @Tags Orders
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Максимум записей (по умолчанию 20, не более 100)"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response "Список заказов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.list.ServeHTTP"

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

	limit := queryInt(r, "limit", defaultLimit)
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	orders, err := h.service.List(r.Context(), telegramID, limit, offset)
	if err != nil {
		log.Error("failed to list orders", sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"orders": orders,
	}))
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

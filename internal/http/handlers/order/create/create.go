// Package create реализует HTTP-обработчик создания заказа.
//
// Handler принимает идентификатор плана, создаёт заказ в статусе pending
// с зафиксированной суммой и возвращает его покупателю.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Handler обрабатывает запросы создания заказа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания заказа.
type Service interface {
	Create(ctx context.Context, telegramID, planID int64) (*models.Order, error)
}

// Request описывает тело запроса создания заказа.
type Request struct {
	PlanID int64 `json:"plan_id" validate:"required,min=1"`
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать заказ
// @Description Создает заказ на выбранный план. Сумма фиксируется в момент создания. У пользователя может быть только один незавершённый заказ.
// @Tags Orders
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Идентификатор плана"
// @Success 200 {object} response.Response "Созданный заказ"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "План не найден или выключен"
// @Failure 409 {object} response.ErrorResponse "Уже есть незавершённый заказ"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /orders [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.create.ServeHTTP"

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

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.KindValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	result, err := h.service.Create(r.Context(), telegramID, req.PlanID)
	if err != nil {
		log.Error("failed to create order", sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("order created", slog.Int64("order_id", result.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order": result,
	}))
}

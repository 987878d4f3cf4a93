// Package miniapp реализует HTTP-обработчик входа из мини-приложения Telegram.
package miniapp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/services/auth"
)

// Handler обрабатывает запросы входа из мини-приложения.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики входа
	validate *validator.Validate // Валидатор тела запроса
}

// Service описывает интерфейс бизнес-логики входа из мини-приложения.
type Service interface {
	LoginMiniApp(ctx context.Context, initData string) (*auth.Result, error)
}

// Request описывает тело запроса входа из мини-приложения.
type Request struct {
	InitData string `json:"init_data" validate:"required"`
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
// @Summary Вход из мини-приложения Telegram
// @Description Проверяет initData мини-приложения и возвращает сессионный JWT с данными пользователя.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "initData мини-приложения"
// @Success 200 {object} response.Response "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Подпись не прошла проверку"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/miniapp [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.miniapp.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	result, err := h.service.LoginMiniApp(r.Context(), req.InitData)
	if err != nil {
		log.Error("miniapp login failed", sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("user logged in via miniapp", slog.Int64("telegram_id", result.User.TelegramID))
	render.JSON(w, r, response.StatusOKWithData(result))
}

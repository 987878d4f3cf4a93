// Package widget реализует HTTP-обработчик входа через Telegram Login Widget.
//
// Handler принимает поля, переданные виджетом, проверяет подпись и возвращает
// сессионный JWT вместе с данными пользователя.
package widget

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/services/auth"
)

// Handler обрабатывает запросы входа через виджет.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики входа
}

// Service описывает интерфейс бизнес-логики входа через виджет.
type Service interface {
	LoginWidget(ctx context.Context, fields map[string]string) (*auth.Result, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Вход через Telegram Login Widget
// @Description Проверяет подпись полей виджета и возвращает сессионный JWT с данными пользователя.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body map[string]string true "Поля, переданные виджетом, включая hash"
// @Success 200 {object} response.Response "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Подпись не прошла проверку"
// @Router /auth/telegram [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.widget.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var fields map[string]string
	if err := render.DecodeJSON(r.Body, &fields); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.KindValidation, "invalid request body"))
		return
	}

	result, err := h.service.LoginWidget(r.Context(), fields)
	if err != nil {
		log.Error("widget login failed", sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("user logged in via widget", slog.Int64("telegram_id", result.User.TelegramID))
	render.JSON(w, r, response.StatusOKWithData(result))
}

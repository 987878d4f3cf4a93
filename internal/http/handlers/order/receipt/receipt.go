// Package receipt реализует HTTP-обработчики чека оплаты: загрузку с
// переводом заказа в submitted и выдачу файла обратно владельцу.
package receipt

import (
	"context"
	"errors"
	"io"
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
	"github.com/magabrotheeeer/vpn-storefront/internal/services/order"
)

// Service описывает интерфейс бизнес-логики работы с чеком.
type Service interface {
	AttachReceipt(ctx context.Context, telegramID, orderID int64,
		file io.Reader, filename string, size int64) (*models.Order, error)
	ReceiptFile(ctx context.Context, telegramID, orderID int64) (path, name string, err error)
}

// UploadHandler обрабатывает загрузку чека.
type UploadHandler struct {
	log     *slog.Logger
	service Service
}

// NewUpload создает новый UploadHandler.
func NewUpload(log *slog.Logger, service Service) *UploadHandler {
	return &UploadHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Прикрепить чек к заказу
// @Description Принимает файл чека (jpeg, png или pdf, до 10 МБ) в поле receipt и переводит заказ в статус submitted.
// @Tags Orders
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID заказа"
// @Param receipt formData file true "Файл чека"
// @Success 200 {object} response.Response "Заказ переведён в submitted"
// @Failure 400 {object} response.ErrorResponse "Некорректная форма"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Заказ не в статусе pending"
// @Failure 422 {object} response.ErrorResponse "Файл не прошёл проверку"
// @Router /orders/{id}/receipt [post]
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.receipt.Upload"

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

	r.Body = http.MaxBytesReader(w, r.Body, order.MaxReceiptSize+1<<20)
	file, header, err := r.FormFile("receipt")
	if err != nil {
		log.Error("failed to read receipt from form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.KindValidation, "receipt file is required"))
		return
	}
	defer file.Close()

	result, err := h.service.AttachReceipt(r.Context(), telegramID, orderID, file, header.Filename, header.Size)
	if err != nil {
		log.Error("failed to attach receipt", sl.Err(err))
		status, resp := responseForUpload(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("receipt attached", slog.Int64("order_id", orderID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order": result,
	}))
}

func responseForUpload(err error) (int, response.Response) {
	if errors.Is(err, order.ErrReceiptInvalid) {
		return http.StatusUnprocessableEntity, response.Error(response.KindValidation, "receipt file is not acceptable")
	}
	return response.FromError(err)
}

// DownloadHandler выдаёт файл чека владельцу заказа.
type DownloadHandler struct {
	log     *slog.Logger
	service Service
}

// NewDownload создает новый DownloadHandler.
func NewDownload(log *slog.Logger, service Service) *DownloadHandler {
	return &DownloadHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Скачать чек заказа
// @Description Возвращает ранее загруженный файл чека. Доступен только владельцу заказа.
// @Tags Orders
// @Produce  octet-stream
// @Security BearerAuth
// @Param id path int true "ID заказа"
// @Success 200 {file} file "Файл чека"
// @Failure 404 {object} response.ErrorResponse "Заказ или чек не найден"
// @Router /orders/{id}/receipt [get]
func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.receipt.Download"

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

	path, name, err := h.service.ReceiptFile(r.Context(), telegramID, orderID)
	if err != nil {
		log.Error("failed to locate receipt", sl.Err(err))
		status, resp := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

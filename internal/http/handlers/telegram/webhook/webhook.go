// Package webhook реализует приём обновлений Telegram Bot API и разбор
// нажатий кнопок оператора под сводкой заказа.
//
// Маршрут защищён секретом в пути: запрос с неверным секретом — единственный
// случай, когда обработчик отвечает не 200. Ошибки обработки callback
// сообщаются оператору всплывашкой, а Telegram всегда получает 200, чтобы
// не копить повторные доставки.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
	"github.com/magabrotheeeer/vpn-storefront/internal/telegram"
)

// Service описывает интерфейс решений оператора по заказу.
type Service interface {
	Approve(ctx context.Context, orderID int64) (*models.OrderInfo, error)
	Reject(ctx context.Context, orderID int64, note string) (*models.OrderInfo, error)
	Details(ctx context.Context, orderID int64) (*models.OrderInfo, error)
}

// Notifier описывает ответы оператору: закрытие callback, правка сводки
// заказа и произвольный текст.
type Notifier interface {
	AnswerCallback(callbackID, text string) error
	EditOrderStatus(chatID int64, messageID int, text string) error
	SendOperatorReply(text string) error
}

// Handler обрабатывает обновления Telegram.
type Handler struct {
	log        *slog.Logger
	service    Service
	notifier   Notifier
	secret     string
	operatorID int64
}

// New создает новый Handler. Кнопки заказа сработают только для operatorID:
// секрет в пути отсекает посторонние запросы, но не подменённый from.id.
func New(log *slog.Logger, service Service, notifier Notifier, secret string, operatorID int64) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		notifier:   notifier,
		secret:     secret,
		operatorID: operatorID,
	}
}

// ServeHTTP принимает обновление Bot API. Обновления без callback_query
// подтверждаются без обработки.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.telegram.webhook.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if chi.URLParam(r, "secret") != h.secret {
		log.Error("webhook called with wrong secret")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		log.Error("failed to decode update", sl.Err(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	if update.CallbackQuery != nil {
		h.handleCallback(r.Context(), log, update.CallbackQuery)
	}
	w.WriteHeader(http.StatusOK)
}

// handleCallback разбирает callback_data вида "approve:42" и отвечает на
// callback ровно один раз независимо от исхода.
func (h *Handler) handleCallback(ctx context.Context, log *slog.Logger, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.From.ID != h.operatorID {
		var fromID int64
		if cb.From != nil {
			fromID = cb.From.ID
		}
		log.Error("callback from non-operator", slog.Int64("from_id", fromID))
		h.answer(log, cb.ID, "Действие недоступно")
		return
	}

	action, orderID, err := parseCallbackData(cb.Data)
	if err != nil {
		log.Error("unparsable callback data", sl.Err(err), slog.String("data", cb.Data))
		h.answer(log, cb.ID, "Неизвестная кнопка")
		return
	}

	log = log.With(slog.String("action", action), slog.Int64("order_id", orderID))

	switch action {
	case telegram.CallbackApprove:
		info, err := h.service.Approve(ctx, orderID)
		if err != nil {
			log.Error("approve failed", sl.Err(err))
			h.answer(log, cb.ID, popupForError(err))
			return
		}
		log.Info("order approved by operator")
		h.answer(log, cb.ID, fmt.Sprintf("Заказ #%d подтверждён, аккаунт выдан", info.ID))
		h.editStatus(log, cb, fmt.Sprintf("Заказ #%d — подтверждён, аккаунт выдан", info.ID))

	case telegram.CallbackReject:
		info, err := h.service.Reject(ctx, orderID, "")
		if err != nil {
			log.Error("reject failed", sl.Err(err))
			h.answer(log, cb.ID, popupForError(err))
			return
		}
		log.Info("order rejected by operator")
		h.answer(log, cb.ID, fmt.Sprintf("Заказ #%d отклонён", info.ID))
		h.editStatus(log, cb, fmt.Sprintf("Заказ #%d — отклонён", info.ID))

	case telegram.CallbackDetails:
		info, err := h.service.Details(ctx, orderID)
		if err != nil {
			log.Error("details failed", sl.Err(err))
			h.answer(log, cb.ID, popupForError(err))
			return
		}
		h.answer(log, cb.ID, "")
		if err := h.notifier.SendOperatorReply(detailsText(info)); err != nil {
			log.Error("failed to send details", sl.Err(err))
		}

	default:
		h.answer(log, cb.ID, "Неизвестная кнопка")
	}
}

func (h *Handler) answer(log *slog.Logger, callbackID, text string) {
	if err := h.notifier.AnswerCallback(callbackID, text); err != nil {
		log.Error("failed to answer callback", sl.Err(err))
	}
}

// editStatus переписывает сводку под кнопками после решения, снимая
// клавиатуру. Старые callback без сообщения пропускаются.
func (h *Handler) editStatus(log *slog.Logger, cb *tgbotapi.CallbackQuery, text string) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	if err := h.notifier.EditOrderStatus(cb.Message.Chat.ID, cb.Message.MessageID, text); err != nil {
		log.Error("failed to edit order message", sl.Err(err))
	}
}

func parseCallbackData(data string) (action string, orderID int64, err error) {
	action, rawID, found := strings.Cut(data, ":")
	if !found {
		return "", 0, fmt.Errorf("no separator in %q", data)
	}
	orderID, err = strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("bad order id in %q: %w", data, err)
	}
	return action, orderID, nil
}

func popupForError(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "Заказ не найден"
	case errors.Is(err, models.ErrInvalidState):
		return "Заказ уже обработан"
	case errors.Is(err, models.ErrUpstream):
		return "Панель недоступна, попробуйте позже"
	default:
		return "Внутренняя ошибка, попробуйте позже"
	}
}

func detailsText(info *models.OrderInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Заказ #%d\n", info.ID)
	fmt.Fprintf(&b, "Статус: %s\n", info.Status)
	fmt.Fprintf(&b, "Покупатель: @%s (id %d)\n", info.UserName, info.TelegramID)
	fmt.Fprintf(&b, "План: %s\n", info.PlanName)
	fmt.Fprintf(&b, "Сумма: %s\n", telegram.FormatAmount(info.Amount))
	fmt.Fprintf(&b, "Создан: %s", info.CreatedAt.Format("02.01.2006 15:04"))
	if info.Account != nil {
		fmt.Fprintf(&b, "\nАккаунт: %s, действует до %s",
			info.Account.Username, info.Account.ExpiresAt.Format("02.01.2006"))
	}
	if info.OperatorNote != "" {
		fmt.Fprintf(&b, "\nПримечание: %s", info.OperatorNote)
	}
	return b.String()
}

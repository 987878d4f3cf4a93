// Package telegram отправляет сообщения через Bot API: сводки заказов
// оператору с кнопками решения, реквизиты и отказы покупателям,
// предупреждения об истечении аккаунта.
package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Префиксы callback_data кнопок под сводкой заказа.
const (
	CallbackApprove = "approve"
	CallbackReject  = "reject"
	CallbackDetails = "details"
)

// Sender отправляет сообщения и служебные запросы Bot API.
// Реализуется *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Notifier struct {
	api            Sender
	operatorChatID int64
}

// New подключается к Bot API с данным токеном.
func New(botToken string, operatorChatID int64) (*Notifier, error) {
	const op = "telegram.New"
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Notifier{api: api, operatorChatID: operatorChatID}, nil
}

// NewWithAPI оборачивает готовый Sender, в тестах — мок.
func NewWithAPI(api Sender, operatorChatID int64) *Notifier {
	return &Notifier{api: api, operatorChatID: operatorChatID}
}

// OrderKeyboard собирает кнопки решения по заказу.
func OrderKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", fmt.Sprintf("%s:%d", CallbackApprove, orderID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", fmt.Sprintf("%s:%d", CallbackReject, orderID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Детали", fmt.Sprintf("%s:%d", CallbackDetails, orderID)),
		),
	)
}

// SendOrderAlert отправляет оператору сводку заказа с чеком и кнопками
// решения. Если чек недоступен на диске, сводка уходит обычным сообщением.
func (n *Notifier) SendOrderAlert(order *models.OrderInfo, receiptPath string) error {
	const op = "telegram.SendOrderAlert"

	text := fmt.Sprintf("Новый заказ #%d\nПокупатель: @%s (id %d)\nПлан: %s\nСумма: %s",
		order.ID, order.UserName, order.TelegramID, order.PlanName, FormatAmount(order.Amount))

	if receiptPath != "" {
		doc := tgbotapi.NewDocument(n.operatorChatID, tgbotapi.FilePath(receiptPath))
		doc.Caption = text
		doc.ReplyMarkup = OrderKeyboard(order.ID)
		if _, err := n.api.Send(doc); err == nil {
			return nil
		}
		// Падаем на текстовую сводку, решение оператора важнее вложения.
	}

	msg := tgbotapi.NewMessage(n.operatorChatID, text)
	msg.ReplyMarkup = OrderKeyboard(order.ID)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendCredentials отправляет покупателю реквизиты выданного аккаунта.
func (n *Notifier) SendCredentials(chatID int64, planName string, account *models.ProvisionedAccount) error {
	const op = "telegram.SendCredentials"

	text := fmt.Sprintf("Оплата подтверждена, план «%s» активирован.\n\nЛогин: %s\nКлюч: %s\nСервер: %s\nДействует до: %s",
		planName, account.Username, account.Password, account.ServerAddress,
		account.ExpiresAt.Format("02.01.2006"))
	if _, err := n.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendRejection сообщает покупателю об отклонении заказа.
func (n *Notifier) SendRejection(chatID int64, planName, note string) error {
	const op = "telegram.SendRejection"

	text := fmt.Sprintf("Заказ на план «%s» отклонён.", planName)
	if note != "" {
		text += "\nПричина: " + note
	}
	text += "\nЕсли это ошибка, оформите заказ заново и приложите читаемый чек."
	if _, err := n.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendExpiryWarning предупреждает покупателя о скором окончании аккаунта.
func (n *Notifier) SendExpiryWarning(chatID int64, username string, expiresAt time.Time) error {
	const op = "telegram.SendExpiryWarning"

	text := fmt.Sprintf("Аккаунт %s перестанет работать %s. Продлите доступ, оформив новый заказ.",
		username, expiresAt.Format("02.01.2006"))
	if _, err := n.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EditOrderStatus переписывает сводку заказа после решения оператора.
// Без ReplyMarkup в правке клавиатура с сообщения снимается. Сводка с чеком
// уходит документом, у него правится подпись, а не текст.
func (n *Notifier) EditOrderStatus(chatID int64, messageID int, text string) error {
	const op = "telegram.EditOrderStatus"

	if _, err := n.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err == nil {
		return nil
	}
	if _, err := n.api.Request(tgbotapi.NewEditMessageCaption(chatID, messageID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AnswerCallback закрывает "часики" на кнопке; текст показывается
// оператору всплывашкой.
func (n *Notifier) AnswerCallback(callbackID, text string) error {
	const op = "telegram.AnswerCallback"
	if _, err := n.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendOperatorReply отправляет оператору произвольный текст, например,
// детали заказа по кнопке.
func (n *Notifier) SendOperatorReply(text string) error {
	const op = "telegram.SendOperatorReply"
	if _, err := n.api.Send(tgbotapi.NewMessage(n.operatorChatID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FormatAmount печатает сумму в минимальных единицах как рубли с копейками.
func FormatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d ₽", minor/100, minor%100)
}

package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
	"github.com/magabrotheeeer/vpn-storefront/internal/rabbitmq"
)

// TelegramNotifier описывает контракт отправки сообщений в Telegram.
type TelegramNotifier interface {
	SendOrderAlert(order *models.OrderInfo, receiptPath string) error
	SendCredentials(chatID int64, planName string, account *models.ProvisionedAccount) error
	SendRejection(chatID int64, planName, note string) error
	SendExpiryWarning(chatID int64, username string, expiresAt time.Time) error
}

// SenderService превращает сообщения из очередей в отправку через Telegram.
// Методы соответствуют сигнатуре обработчика rabbitmq.ConsumerMessage.
type SenderService struct {
	log      *slog.Logger
	notifier TelegramNotifier
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, notifier TelegramNotifier) *SenderService {
	return &SenderService{log: log, notifier: notifier}
}

// SendOrderAlert отправляет оператору сводку заказа из очереди.
func (s *SenderService) SendOrderAlert(body []byte) error {
	var message OrderAlertMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return fmt.Errorf("error unmarshalling message: %w: %w", rabbitmq.ErrUnprocessable, err)
	}

	order := &models.OrderInfo{
		Order: models.Order{
			ID:          message.OrderID,
			Amount:      message.Amount,
			ReceiptPath: message.ReceiptPath,
		},
		PlanName:   message.PlanName,
		TelegramID: message.TelegramID,
		UserName:   message.Username,
	}
	s.log.Info("sending order alert to operator", slog.Int64("order_id", message.OrderID))
	return s.notifier.SendOrderAlert(order, message.ReceiptPath)
}

// SendCredentials отправляет покупателю реквизиты аккаунта из очереди.
func (s *SenderService) SendCredentials(body []byte) error {
	var message CredentialsMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return fmt.Errorf("error unmarshalling message: %w: %w", rabbitmq.ErrUnprocessable, err)
	}

	s.log.Info("sending credentials", slog.Int64("telegram_id", message.TelegramID))
	return s.notifier.SendCredentials(message.TelegramID, message.PlanName, &message.Account)
}

// SendRejection отправляет покупателю отказ по заказу из очереди.
func (s *SenderService) SendRejection(body []byte) error {
	var message RejectionMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return fmt.Errorf("error unmarshalling message: %w: %w", rabbitmq.ErrUnprocessable, err)
	}

	s.log.Info("sending rejection", slog.Int64("telegram_id", message.TelegramID))
	return s.notifier.SendRejection(message.TelegramID, message.PlanName, message.Note)
}

// SendExpiryWarning предупреждает покупателя об истечении аккаунта.
func (s *SenderService) SendExpiryWarning(body []byte) error {
	var message ExpiryMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return fmt.Errorf("error unmarshalling message: %w: %w", rabbitmq.ErrUnprocessable, err)
	}

	s.log.Info("sending expiry warning",
		slog.Int64("telegram_id", message.TelegramID),
		slog.String("account", message.Username))
	return s.notifier.SendExpiryWarning(message.TelegramID, message.Username, message.ExpiresAt)
}

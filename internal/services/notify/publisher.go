package notify

import (
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/vpn-storefront/internal/metrics"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
	"github.com/magabrotheeeer/vpn-storefront/internal/rabbitmq"
)

// Publisher отправляет события витрины в обменник уведомлений.
type Publisher struct {
	ch      *amqp.Channel
	metrics *metrics.Metrics
}

// NewPublisher создает новый Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel, m *metrics.Metrics) *Publisher {
	return &Publisher{ch: ch, metrics: m}
}

func (p *Publisher) publish(routingKey string, message any) error {
	const op = "notify.publish"
	if err := rabbitmq.PublishMessage(p.ch, rabbitmq.NotificationsExchange, routingKey, message); err != nil {
		p.metrics.NotificationErrors.Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	p.metrics.RecordNotification(routingKey)
	return nil
}

// PublishOrderAlert публикует сводку заказа для оператора.
func (p *Publisher) PublishOrderAlert(order *models.OrderInfo) error {
	return p.publish(rabbitmq.RoutingKeyOperatorOrder, OrderAlertMessage{
		OrderID:     order.ID,
		PlanName:    order.PlanName,
		Amount:      order.Amount,
		TelegramID:  order.TelegramID,
		Username:    order.UserName,
		ReceiptPath: order.ReceiptPath,
	})
}

// PublishCredentials публикует реквизиты аккаунта для покупателя.
func (p *Publisher) PublishCredentials(order *models.OrderInfo) error {
	return p.publish(rabbitmq.RoutingKeyUserCredentials, CredentialsMessage{
		TelegramID: order.TelegramID,
		PlanName:   order.PlanName,
		Account:    *order.Account,
	})
}

// PublishRejection публикует отказ по заказу для покупателя.
func (p *Publisher) PublishRejection(order *models.OrderInfo) error {
	return p.publish(rabbitmq.RoutingKeyUserRejected, RejectionMessage{
		TelegramID: order.TelegramID,
		PlanName:   order.PlanName,
		Note:       order.OperatorNote,
	})
}

// PublishExpiry публикует предупреждение об истечении аккаунта.
func (p *Publisher) PublishExpiry(acc *models.ExpiringAccount) error {
	return p.publish(rabbitmq.RoutingKeyUserExpiring, ExpiryMessage{
		AccountID:  acc.AccountID,
		TelegramID: acc.TelegramID,
		Username:   acc.Username,
		ExpiresAt:  acc.ExpiresAt,
	})
}

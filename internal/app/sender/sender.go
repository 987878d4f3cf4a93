// Package sender собирает приложение доставки уведомлений: потребляет
// сообщения из очередей и отправляет их в Telegram.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/vpn-storefront/internal/config"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/rabbitmq"
	"github.com/magabrotheeeer/vpn-storefront/internal/services/notify"
	"github.com/magabrotheeeer/vpn-storefront/internal/telegram"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *notify.SenderService
	logger        *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	notifier, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.OperatorChatID)
	if err != nil {
		conn.Close()
		return nil, err
	}

	senderService := notify.NewSenderService(logger, notifier)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	consumers := []struct {
		queue   string
		handler func([]byte) error
	}{
		{"notifications.operator.order", a.senderService.SendOrderAlert},
		{"notifications.user.credentials", a.senderService.SendCredentials},
		{"notifications.user.rejected", a.senderService.SendRejection},
		{"notifications.user.expiring", a.senderService.SendExpiryWarning},
	}
	for _, c := range consumers {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, c.queue, c.handler); err != nil {
			a.logger.Error("failed to start consumer",
				slog.String("queue", c.queue), sl.Err(err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}

	return nil
}

// Package storefront собирает основное приложение витрины: хранилище,
// кэш, брокер уведомлений, HTTP-сервер и периодические задачи.
package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/vpn-storefront/internal/cache"
	"github.com/magabrotheeeer/vpn-storefront/internal/config"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/metrics"
	"github.com/magabrotheeeer/vpn-storefront/internal/migrations"
	"github.com/magabrotheeeer/vpn-storefront/internal/provisioner"
	"github.com/magabrotheeeer/vpn-storefront/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/vpn-storefront/internal/services/auth"
	expiryservice "github.com/magabrotheeeer/vpn-storefront/internal/services/expiry"
	"github.com/magabrotheeeer/vpn-storefront/internal/services/notify"
	orderservice "github.com/magabrotheeeer/vpn-storefront/internal/services/order"
	"github.com/magabrotheeeer/vpn-storefront/internal/storage/repository"
	"github.com/magabrotheeeer/vpn-storefront/internal/telegram"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
	jobs   *cron.Cron
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(cfg.UploadDir, 0o750); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

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

	m := metrics.Default()
	publisher := notify.NewPublisher(ch, m)
	panel := provisioner.NewClient(cfg.Provisioner.PanelURL, cfg.Provisioner.PanelAPIKey, cfg.Provisioner.Timeout)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.New(db, jwtMaker, cfg.Telegram.BotToken,
		cfg.Telegram.WidgetAuthMaxAge, cfg.Telegram.MiniAppAuthMaxAge)
	orderService := orderservice.New(logger, db, panel, publisher, cacheRedis, m,
		cfg.UploadDir, cfg.Provisioner.ServerAddress)
	expiryService := expiryservice.New(logger, db, publisher)

	jobs := cron.New()
	_, err = jobs.AddFunc("30 3 * * *", func() {
		expiryService.DeactivateExpired(context.Background())
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	_, err = jobs.AddFunc("0 10 * * *", func() {
		expiryService.WarnExpiring(context.Background())
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, authService, orderService, notifier, db,
		cfg.Telegram.WebhookSecret, cfg.Telegram.OperatorChatID)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
		jobs:   jobs,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.jobs.Start()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")

		<-a.jobs.Stop().Done()
		err := a.server.Shutdown(timeoutCtx)

		if cerr := a.ch.Close(); cerr != nil {
			a.logger.Error("failed to close channel", sl.Err(cerr))
		}
		if cerr := a.conn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", sl.Err(cerr))
		}
		a.db.DB.Close()
		return err
	}
}

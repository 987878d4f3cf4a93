// Package storefront предоставляет маршруты для основного приложения.
package storefront

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	accountlist "github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/account/list"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/auth/miniapp"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/auth/widget"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/health"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/order/create"
	orderlist "github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/order/list"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/order/read"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/order/receipt"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/order/track"
	planlist "github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/plan/list"
	planread "github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/plan/read"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/handlers/telegram/webhook"
	"github.com/magabrotheeeer/vpn-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/vpn-storefront/internal/services/auth"
	orderservice "github.com/magabrotheeeer/vpn-storefront/internal/services/order"
	"github.com/magabrotheeeer/vpn-storefront/internal/storage/repository"
	"github.com/magabrotheeeer/vpn-storefront/internal/telegram"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker,
	authService *authservice.Service, orderService *orderservice.Service,
	notifier *telegram.Notifier, db *repository.Storage, webhookSecret string, operatorID int64) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	authLimiter := rate.NewLimiter(rate.Limit(5), 10)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, authLimiter))
			r.Post("/auth/telegram", widget.New(logger, authService).ServeHTTP)
			r.Post("/auth/miniapp", miniapp.New(logger, authService).ServeHTTP)
		})
		// Статус заказа по публичному токену из ссылки, без сессии
		r.Get("/orders/track/{token}", track.New(logger, orderService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Get("/plans", planlist.New(logger, orderService).ServeHTTP)
			r.Get("/plans/{id}", planread.New(logger, orderService).ServeHTTP)
			r.Get("/accounts", accountlist.New(logger, orderService).ServeHTTP)
			r.Post("/orders", create.New(logger, orderService).ServeHTTP)
			r.Get("/orders", orderlist.New(logger, orderService).ServeHTTP)
			r.Get("/orders/{id}", read.New(logger, orderService).ServeHTTP)
			r.Post("/orders/{id}/receipt", receipt.NewUpload(logger, orderService).ServeHTTP)
			r.Get("/orders/{id}/receipt", receipt.NewDownload(logger, orderService).ServeHTTP)
		})
	})

	// Webhook от Telegram (без аутентификации, секрет в пути)
	r.Post("/telegram/webhook/{secret}", webhook.New(logger, orderService, notifier, webhookSecret, operatorID).ServeHTTP)

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

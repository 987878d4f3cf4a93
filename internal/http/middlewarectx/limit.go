package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/response"
)

// RateLimitMiddleware ограничивает частоту запросов к маршрутам входа,
// где проверка подписи заметно дороже обычного запроса.
func RateLimitMiddleware(log *slog.Logger, limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Error("too many requests")
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error(response.KindValidation, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Package middlewarectx содержит HTTP middleware для проверки сессионного
// JWT и ограничения частоты запросов.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке
// Authorization и в случае успеха добавляет в контекст telegram_id и имя
// пользователя для дальнейшего использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/response"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// TelegramID — ключ telegram_id пользователя в контексте
	TelegramID Key = "telegram_id"
	// Username — ключ имени пользователя в контексте
	Username Key = "username"
)

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет telegram_id и имя пользователя в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.KindVerification, "missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.KindVerification, "invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), TelegramID, claims.TelegramID)
			ctx = context.WithValue(ctx, Username, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TelegramIDFromContext возвращает telegram_id, положенный JWTMiddleware.
func TelegramIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(TelegramID).(int64)
	return id, ok
}

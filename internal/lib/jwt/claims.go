// Package jwt реализует генерацию и парсинг сессионных JWT токенов.
//
// Токен выдаётся после успешной проверки подписи Telegram и несёт числовой
// идентификатор пользователя Telegram, по которому обработчики находят
// локальную учётную запись.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга сессионных токенов.
type Maker interface {
	// GenerateToken создаёт токен для пользователя Telegram.
	GenerateToken(telegramID int64, username string) (string, error)
	// ParseToken возвращает *SessionClaims, если токен корректен.
	ParseToken(tokenStr string) (*SessionClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

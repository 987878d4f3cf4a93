// Package auth содержит логику входа через Telegram: проверку подписи
// данных, ленивое создание пользователя и выдачу сессионного JWT.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/tgauth"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// UpsertTelegramUser создаёт или обновляет пользователя и возвращает актуальную запись.
	UpsertTelegramUser(ctx context.Context, user models.User) (*models.User, error)
}

// Result содержит итог успешного входа.
type Result struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Service отвечает за обе схемы входа: виджет на сайте и мини-приложение.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker

	botToken      string
	widgetMaxAge  time.Duration
	miniAppMaxAge time.Duration
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker, botToken string, widgetMaxAge, miniAppMaxAge time.Duration) *Service {
	return &Service{
		users:         users,
		jwtMaker:      jwtMaker,
		botToken:      botToken,
		widgetMaxAge:  widgetMaxAge,
		miniAppMaxAge: miniAppMaxAge,
	}
}

// LoginWidget проверяет поля Telegram Login Widget и выполняет вход.
func (s *Service) LoginWidget(ctx context.Context, fields map[string]string) (*Result, error) {
	const op = "services.auth.LoginWidget"

	identity, err := tgauth.VerifyLoginWidget(fields, s.botToken, s.widgetMaxAge)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.login(ctx, op, identity)
}

// LoginMiniApp проверяет initData мини-приложения и выполняет вход.
func (s *Service) LoginMiniApp(ctx context.Context, initData string) (*Result, error) {
	const op = "services.auth.LoginMiniApp"

	identity, err := tgauth.VerifyInitData(initData, s.botToken, s.miniAppMaxAge)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.login(ctx, op, identity)
}

func (s *Service) login(ctx context.Context, op string, identity *tgauth.Identity) (*Result, error) {
	user, err := s.users.UpsertTelegramUser(ctx, models.User{
		TelegramID:   identity.ID,
		Username:     identity.Username,
		FirstName:    identity.FirstName,
		LastName:     identity.LastName,
		PhotoURL:     identity.PhotoURL,
		LanguageCode: identity.LanguageCode,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.TelegramID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Result{Token: token, User: user}, nil
}

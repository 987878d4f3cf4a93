// Package expiry содержит периодические задачи жизненного цикла аккаунтов:
// деактивацию просроченных и предупреждения о скором окончании.
package expiry

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// warnDaysBefore — за сколько дней предупреждать об окончании.
const warnDaysBefore = 3

// Repository описывает контракт хранилища для задач истечения.
type Repository interface {
	DeactivateExpiredAccounts(ctx context.Context) (int64, error)
	ListAccountsExpiringWithin(ctx context.Context, days int) ([]*models.ExpiringAccount, error)
	MarkExpiryNotified(ctx context.Context, accountID int64) error
}

// Publisher описывает контракт публикации предупреждений.
type Publisher interface {
	PublishExpiry(acc *models.ExpiringAccount) error
}

// Service реализует обе периодические задачи.
type Service struct {
	log       *slog.Logger
	repo      Repository
	publisher Publisher
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, repo Repository, publisher Publisher) *Service {
	return &Service{log: log, repo: repo, publisher: publisher}
}

// DeactivateExpired отключает просроченные аккаунты.
func (s *Service) DeactivateExpired(ctx context.Context) {
	count, err := s.repo.DeactivateExpiredAccounts(ctx)
	if err != nil {
		s.log.Error("failed to deactivate expired accounts", sl.Err(err))
		return
	}
	if count > 0 {
		s.log.Info("deactivated expired accounts", slog.Int64("count", count))
	}
}

// WarnExpiring публикует предупреждения по аккаунтам, которые скоро
// закончатся. Аккаунт помечается уведомлённым только после успешной
// публикации, неудачные попытки повторятся при следующем запуске.
func (s *Service) WarnExpiring(ctx context.Context) {
	accounts, err := s.repo.ListAccountsExpiringWithin(ctx, warnDaysBefore)
	if err != nil {
		s.log.Error("failed to list expiring accounts", sl.Err(err))
		return
	}

	for _, acc := range accounts {
		if err := s.publisher.PublishExpiry(acc); err != nil {
			s.log.Error("failed to publish expiry warning", sl.Err(err),
				slog.Int64("account_id", acc.AccountID))
			continue
		}
		if err := s.repo.MarkExpiryNotified(ctx, acc.AccountID); err != nil {
			s.log.Error("failed to mark account notified", sl.Err(err),
				slog.Int64("account_id", acc.AccountID))
		}
	}
}

package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// DeactivateExpiredAccounts помечает просроченные активные аккаунты как
// неактивные и возвращает количество затронутых строк.
func (s *Storage) DeactivateExpiredAccounts(ctx context.Context) (int64, error) {
	const op = "storage.DeactivateExpiredAccounts"

	result, err := s.DB.ExecContext(ctx,
		`UPDATE provisioned_accounts
		 SET is_active = false
		 WHERE is_active = true AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListAccountsExpiringWithin возвращает активные аккаунты, срок которых
// заканчивается в течение days дней и по которым ещё не отправлялось
// предупреждение.
func (s *Storage) ListAccountsExpiringWithin(ctx context.Context, days int) ([]*models.ExpiringAccount, error) {
	const op = "storage.ListAccountsExpiringWithin"

	query := `SELECT a.id, u.telegram_id, a.username, a.expires_at
			  FROM provisioned_accounts a
			  JOIN users u ON u.id = a.user_id
			  WHERE a.is_active = true
			    AND a.expiry_notified = false
			    AND a.expires_at <= now() + make_interval(days => $1)
			  ORDER BY a.expires_at`
	rows, err := s.DB.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.ExpiringAccount
	for rows.Next() {
		var acc models.ExpiringAccount
		if err := rows.Scan(&acc.AccountID, &acc.TelegramID, &acc.Username, &acc.ExpiresAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkExpiryNotified фиксирует, что предупреждение по аккаунту отправлено,
// чтобы следующий запуск задачи его не дублировал.
func (s *Storage) MarkExpiryNotified(ctx context.Context, accountID int64) error {
	const op = "storage.MarkExpiryNotified"

	if _, err := s.DB.ExecContext(ctx,
		`UPDATE provisioned_accounts SET expiry_notified = true WHERE id = $1`, accountID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListUserAccounts возвращает аккаунты пользователя, активные первыми.
func (s *Storage) ListUserAccounts(ctx context.Context, userID int64) ([]*models.ProvisionedAccount, error) {
	const op = "storage.ListUserAccounts"

	query := `SELECT id, order_id, user_id, username, password, server_address,
			      expires_at, is_active, created_at
			  FROM provisioned_accounts
			  WHERE user_id = $1
			  ORDER BY is_active DESC, expires_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.ProvisionedAccount
	for rows.Next() {
		var acc models.ProvisionedAccount
		if err := rows.Scan(&acc.ID, &acc.OrderID, &acc.UserID, &acc.Username, &acc.Password,
			&acc.ServerAddress, &acc.ExpiresAt, &acc.IsActive, &acc.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

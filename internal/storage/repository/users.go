package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// UpsertTelegramUser создаёт пользователя при первом входе или обновляет
// кешированные атрибуты Telegram при повторном. Возвращает актуальную запись.
func (s *Storage) UpsertTelegramUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.UpsertTelegramUser"

	query := `INSERT INTO users (telegram_id, username, first_name, last_name, photo_url, language_code)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (telegram_id) DO UPDATE
			  SET username = EXCLUDED.username,
			      first_name = EXCLUDED.first_name,
			      last_name = EXCLUDED.last_name,
			      photo_url = EXCLUDED.photo_url,
			      language_code = EXCLUDED.language_code,
			      updated_at = now()
			  RETURNING id, telegram_id, username, first_name, last_name, photo_url, language_code,
			      created_at, updated_at`
	row := s.DB.QueryRowContext(ctx, query,
		user.TelegramID, user.Username, user.FirstName, user.LastName, user.PhotoURL, user.LanguageCode)

	var result models.User
	if err := row.Scan(&result.ID, &result.TelegramID, &result.Username, &result.FirstName,
		&result.LastName, &result.PhotoURL, &result.LanguageCode,
		&result.CreatedAt, &result.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// GetUserByTelegramID возвращает пользователя по идентификатору Telegram.
func (s *Storage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "storage.GetUserByTelegramID"

	query := `SELECT id, telegram_id, username, first_name, last_name, photo_url, language_code,
			      created_at, updated_at
			  FROM users WHERE telegram_id = $1`
	row := s.DB.QueryRowContext(ctx, query, telegramID)

	var result models.User
	if err := row.Scan(&result.ID, &result.TelegramID, &result.Username, &result.FirstName,
		&result.LastName, &result.PhotoURL, &result.LanguageCode,
		&result.CreatedAt, &result.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

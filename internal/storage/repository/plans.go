package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// ListActivePlans возвращает активные тарифные планы в витринном порядке.
func (s *Storage) ListActivePlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListActivePlans"

	query := `SELECT id, name, description, price, duration_days, data_limit_gb, is_active, sort_order
			  FROM plans
			  WHERE is_active = true
			  ORDER BY sort_order, id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Plan
	for rows.Next() {
		var item models.Plan
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price,
			&item.DurationDays, &item.DataLimitGB, &item.IsActive, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetActivePlan возвращает активный план по ID.
func (s *Storage) GetActivePlan(ctx context.Context, id int64) (*models.Plan, error) {
	const op = "storage.GetActivePlan"

	query := `SELECT id, name, description, price, duration_days, data_limit_gb, is_active, sort_order
			  FROM plans
			  WHERE id = $1 AND is_active = true`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Plan
	if err := row.Scan(&result.ID, &result.Name, &result.Description, &result.Price,
		&result.DurationDays, &result.DataLimitGB, &result.IsActive, &result.SortOrder); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// UpdatePlanPrice изменяет цену плана. Суммы уже созданных заказов не меняются.
func (s *Storage) UpdatePlanPrice(ctx context.Context, id int64, price int64) error {
	const op = "storage.UpdatePlanPrice"

	result, err := s.DB.ExecContext(ctx, `UPDATE plans SET price = $1 WHERE id = $2`, price, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

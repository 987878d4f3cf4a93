package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// ProvisionFunc выдаёт аккаунт для подтверждаемого заказа. Вызывается из
// ApproveOrder внутри транзакции ровно один раз; ошибка отменяет переход.
type ProvisionFunc func(ctx context.Context, order *models.OrderInfo, plan *models.Plan) (*models.ProvisionedAccount, error)

const uniqueViolationCode = "23505"

// CreateOrder создаёт заказ в статусе pending, фиксируя сумму из текущей цены
// плана. Возвращает models.ErrOrderConflict, если у пользователя уже есть
// незавершённый заказ (частичный уникальный индекс orders_one_open_per_user),
// и models.ErrNotFound, если план не существует или выключен.
func (s *Storage) CreateOrder(ctx context.Context, userID, planID int64) (*models.Order, error) {
	const op = "storage.CreateOrder"

	query := `INSERT INTO orders (public_token, user_id, plan_id, amount)
			  SELECT $1, $2, p.id, p.price
			  FROM plans p
			  WHERE p.id = $3 AND p.is_active = true
			  RETURNING id, public_token, user_id, plan_id, amount, status,
			      receipt_path, receipt_name, operator_note, created_at, updated_at`
	row := s.DB.QueryRowContext(ctx, query, uuid.NewString(), userID, planID)

	var result models.Order
	if err := scanOrder(row, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: plan %d: %w", op, planID, models.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, fmt.Errorf("%s: %w", op, models.ErrOrderConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// SubmitOrder прикрепляет чек и переводит заказ из pending в submitted.
// Условный UPDATE по статусу делает переход атомарным: конкурентный дубль
// не пройдёт проверку и получит models.ErrInvalidState.
func (s *Storage) SubmitOrder(ctx context.Context, userID, orderID int64, receiptPath, receiptName string) (*models.Order, error) {
	const op = "storage.SubmitOrder"

	query := `UPDATE orders
			  SET status = 'submitted', receipt_path = $3, receipt_name = $4, updated_at = now()
			  WHERE id = $1 AND user_id = $2 AND status = 'pending'
			  RETURNING id, public_token, user_id, plan_id, amount, status,
			      receipt_path, receipt_name, operator_note, created_at, updated_at`
	row := s.DB.QueryRowContext(ctx, query, orderID, userID, receiptPath, receiptName)

	var result models.Order
	if err := scanOrder(row, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.explainNoTransition(ctx, op, userID, orderID)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// explainNoTransition различает "заказа нет" и "заказ в неподходящем статусе"
// после условного UPDATE, который не изменил ни одной строки.
func (s *Storage) explainNoTransition(ctx context.Context, op string, userID, orderID int64) error {
	var status models.OrderStatus
	err := s.DB.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: order %d: %w", op, orderID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: order %d is %s: %w", op, orderID, status, models.ErrInvalidState)
}

// ApproveOrder подтверждает заказ: внутри одной транзакции берёт блокировку
// строки, перепроверяет статус, один раз вызывает provision, сохраняет
// выданный аккаунт и переводит заказ в approved. Ошибка provision откатывает
// транзакцию, заказ остаётся в submitted. Конкурентный дубль ждёт на
// блокировке и затем видит финальный статус.
func (s *Storage) ApproveOrder(ctx context.Context, orderID int64, provision ProvisionFunc) (*models.OrderInfo, error) {
	const op = "storage.ApproveOrder"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	info, plan, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if info.Status != models.OrderStatusSubmitted {
		return nil, fmt.Errorf("%s: order %d is %s: %w", op, orderID, info.Status, models.ErrInvalidState)
	}

	account, err := provision(ctx, info, plan)
	if err != nil {
		return nil, fmt.Errorf("%s: provision order %d: %w", op, orderID, err)
	}
	account.OrderID = info.Order.ID
	account.UserID = info.Order.UserID

	row := tx.QueryRowContext(ctx,
		`INSERT INTO provisioned_accounts (order_id, user_id, username, password, server_address, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, is_active, created_at`,
		account.OrderID, account.UserID, account.Username, account.Password,
		account.ServerAddress, account.ExpiresAt)
	if err := row.Scan(&account.ID, &account.IsActive, &account.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = 'approved', updated_at = now() WHERE id = $1`, orderID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	info.Status = models.OrderStatusApproved
	info.Account = account
	return info, nil
}

// RejectOrder отклоняет заказ под той же блокировкой строки и записывает
// примечание оператора.
func (s *Storage) RejectOrder(ctx context.Context, orderID int64, note string) (*models.OrderInfo, error) {
	const op = "storage.RejectOrder"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	info, _, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if info.Status != models.OrderStatusSubmitted {
		return nil, fmt.Errorf("%s: order %d is %s: %w", op, orderID, info.Status, models.ErrInvalidState)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = 'rejected', operator_note = $2, updated_at = now() WHERE id = $1`,
		orderID, note); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	info.Status = models.OrderStatusRejected
	info.OperatorNote = note
	return info, nil
}

// lockOrder читает заказ вместе с планом и владельцем, беря блокировку
// FOR UPDATE на строку заказа.
func lockOrder(ctx context.Context, tx *sql.Tx, orderID int64) (*models.OrderInfo, *models.Plan, error) {
	query := `SELECT o.id, o.public_token, o.user_id, o.plan_id, o.amount, o.status,
			      o.receipt_path, o.receipt_name, o.operator_note, o.created_at, o.updated_at,
			      p.id, p.name, p.description, p.price, p.duration_days, p.data_limit_gb, p.is_active, p.sort_order,
			      u.telegram_id, u.username
			  FROM orders o
			  JOIN plans p ON p.id = o.plan_id
			  JOIN users u ON u.id = o.user_id
			  WHERE o.id = $1
			  FOR UPDATE OF o`
	row := tx.QueryRowContext(ctx, query, orderID)

	var info models.OrderInfo
	var plan models.Plan
	err := row.Scan(&info.Order.ID, &info.PublicToken, &info.Order.UserID, &info.PlanID,
		&info.Amount, &info.Status, &info.ReceiptPath, &info.ReceiptName, &info.OperatorNote,
		&info.Order.CreatedAt, &info.Order.UpdatedAt,
		&plan.ID, &plan.Name, &plan.Description, &plan.Price, &plan.DurationDays,
		&plan.DataLimitGB, &plan.IsActive, &plan.SortOrder,
		&info.TelegramID, &info.UserName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	info.PlanName = plan.Name
	return &info, &plan, nil
}

// GetOrderDetails возвращает заказ с планом, владельцем и аккаунтом (если
// заказ подтверждён) без фильтра по пользователю. Используется оператором.
func (s *Storage) GetOrderDetails(ctx context.Context, orderID int64) (*models.OrderInfo, error) {
	const op = "storage.GetOrderDetails"
	return s.queryOrderInfo(ctx, op, `o.id = $1`, orderID)
}

// GetUserOrder возвращает заказ пользователя по ID заказа.
func (s *Storage) GetUserOrder(ctx context.Context, userID, orderID int64) (*models.OrderInfo, error) {
	const op = "storage.GetUserOrder"
	return s.queryOrderInfo(ctx, op, `o.id = $1 AND o.user_id = $2`, orderID, userID)
}

// GetOrderByToken возвращает заказ по публичному токену. Токен неугадываем,
// поэтому ссылка на статус заказа работает без сессии.
func (s *Storage) GetOrderByToken(ctx context.Context, token string) (*models.OrderInfo, error) {
	const op = "storage.GetOrderByToken"
	// Колонка имеет тип uuid, кривой токен уронил бы запрос ошибкой приведения.
	if _, err := uuid.Parse(token); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return s.queryOrderInfo(ctx, op, `o.public_token = $1`, token)
}

func (s *Storage) queryOrderInfo(ctx context.Context, op, where string, args ...any) (*models.OrderInfo, error) {
	query := `SELECT o.id, o.public_token, o.user_id, o.plan_id, o.amount, o.status,
			      o.receipt_path, o.receipt_name, o.operator_note, o.created_at, o.updated_at,
			      p.name, u.telegram_id, u.username,
			      a.id, a.username, a.password, a.server_address, a.expires_at, a.is_active, a.created_at
			  FROM orders o
			  JOIN plans p ON p.id = o.plan_id
			  JOIN users u ON u.id = o.user_id
			  LEFT JOIN provisioned_accounts a ON a.order_id = o.id
			  WHERE ` + where
	row := s.DB.QueryRowContext(ctx, query, args...)

	info, err := scanOrderInfo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return info, nil
}

// ListUserOrders возвращает историю заказов пользователя с пагинацией,
// новые сверху.
func (s *Storage) ListUserOrders(ctx context.Context, userID int64, limit, offset int) ([]*models.OrderInfo, error) {
	const op = "storage.ListUserOrders"

	query := `SELECT o.id, o.public_token, o.user_id, o.plan_id, o.amount, o.status,
			      o.receipt_path, o.receipt_name, o.operator_note, o.created_at, o.updated_at,
			      p.name, u.telegram_id, u.username,
			      a.id, a.username, a.password, a.server_address, a.expires_at, a.is_active, a.created_at
			  FROM orders o
			  JOIN plans p ON p.id = o.plan_id
			  JOIN users u ON u.id = o.user_id
			  LEFT JOIN provisioned_accounts a ON a.order_id = o.id
			  WHERE o.user_id = $1
			  ORDER BY o.id DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.OrderInfo
	for rows.Next() {
		info, err := scanOrderInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner, dst *models.Order) error {
	return row.Scan(&dst.ID, &dst.PublicToken, &dst.UserID, &dst.PlanID, &dst.Amount,
		&dst.Status, &dst.ReceiptPath, &dst.ReceiptName, &dst.OperatorNote,
		&dst.CreatedAt, &dst.UpdatedAt)
}

func scanOrderInfo(row rowScanner) (*models.OrderInfo, error) {
	var info models.OrderInfo
	var accID sql.NullInt64
	var accUsername, accPassword, accServer sql.NullString
	var accExpiresAt, accCreatedAt sql.NullTime
	var accIsActive sql.NullBool

	err := row.Scan(&info.Order.ID, &info.PublicToken, &info.Order.UserID, &info.PlanID,
		&info.Amount, &info.Status, &info.ReceiptPath, &info.ReceiptName, &info.OperatorNote,
		&info.Order.CreatedAt, &info.Order.UpdatedAt,
		&info.PlanName, &info.TelegramID, &info.UserName,
		&accID, &accUsername, &accPassword, &accServer, &accExpiresAt, &accIsActive, &accCreatedAt)
	if err != nil {
		return nil, err
	}

	if accID.Valid {
		info.Account = &models.ProvisionedAccount{
			ID:            accID.Int64,
			OrderID:       info.Order.ID,
			UserID:        info.Order.UserID,
			Username:      accUsername.String,
			Password:      accPassword.String,
			ServerAddress: accServer.String,
			ExpiresAt:     accExpiresAt.Time,
			IsActive:      accIsActive.Bool,
			CreatedAt:     accCreatedAt.Time,
		}
	}
	return &info, nil
}

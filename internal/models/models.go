// Package models содержит доменные структуры витрины: пользователей,
// тарифные планы, заказы и выданные VPN-аккаунты, а также статусы заказа
// и общие ошибки бизнес-логики.
package models

import "time"

// OrderStatus описывает состояние заказа в его жизненном цикле.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, рассчитана сумма, ожидается чек.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusSubmitted — чек прикреплён, заказ ожидает решения оператора.
	OrderStatusSubmitted OrderStatus = "submitted"
	// OrderStatusApproved — оператор подтвердил оплату, аккаунт выдан. Финальный статус.
	OrderStatusApproved OrderStatus = "approved"
	// OrderStatusRejected — оператор отклонил заказ. Финальный статус.
	OrderStatusRejected OrderStatus = "rejected"
)

// IsTerminal сообщает, является ли статус финальным: из approved и rejected
// переходы запрещены.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusApproved || s == OrderStatusRejected
}

// User представляет локальную учётную запись, связанную 1:1 с Telegram-аккаунтом.
// Создаётся лениво при первой успешной аутентификации; отображаемые атрибуты
// обновляются при каждом входе.
type User struct {
	ID           int64     `json:"id"`
	TelegramID   int64     `json:"telegram_id"` // Уникальный числовой идентификатор Telegram
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	LanguageCode string    `json:"language_code,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Plan представляет тарифный план из каталога.
type Plan struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        int64  `json:"price"`         // Цена в минимальных денежных единицах
	DurationDays int    `json:"duration_days"` // Срок действия аккаунта в днях
	DataLimitGB  *int   `json:"data_limit_gb,omitempty"`
	IsActive     bool   `json:"is_active"`
	SortOrder    int    `json:"sort_order"`
}

// Order представляет одну попытку покупки. Сумма фиксируется в момент создания
// и не следует за изменениями цены плана.
type Order struct {
	ID           int64       `json:"id"`
	PublicToken  string      `json:"public_token"` // Непрозрачный токен для внешних ссылок
	UserID       int64       `json:"-"`
	PlanID       int64       `json:"plan_id"`
	Amount       int64       `json:"amount"`
	Status       OrderStatus `json:"status"`
	ReceiptPath  string      `json:"-"`
	ReceiptName  string      `json:"-"`
	OperatorNote string      `json:"operator_note,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ProvisionedAccount представляет выданный VPN-аккаунт. Создаётся ровно один раз
// на заказ при переходе в approved и после этого не изменяется, кроме деактивации
// по истечении срока.
type ProvisionedAccount struct {
	ID            int64     `json:"id"`
	OrderID       int64     `json:"-"`
	UserID        int64     `json:"-"`
	Username      string    `json:"username"`
	Password      string    `json:"password"`
	ServerAddress string    `json:"server_address"`
	ExpiresAt     time.Time `json:"expires_at"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// OrderInfo объединяет заказ с названием плана и, для подтверждённых заказов,
// с выданным аккаунтом. Используется в ответах о статусе заказа.
type OrderInfo struct {
	Order
	PlanName string              `json:"plan"`
	Account  *ProvisionedAccount `json:"account,omitempty"`

	// Поля владельца, нужны для уведомлений и сводки оператору.
	TelegramID int64  `json:"-"`
	UserName   string `json:"-"`
}

// ExpiringAccount содержит данные для уведомления о скором окончании аккаунта.
type ExpiringAccount struct {
	AccountID  int64     `json:"account_id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	ExpiresAt  time.Time `json:"expires_at"`
}

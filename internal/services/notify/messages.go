// Package notify публикует события витрины в брокер уведомлений и
// разбирает их на стороне отправителя сообщений Telegram.
package notify

import (
	"time"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// OrderAlertMessage — сводка заказа для оператора.
type OrderAlertMessage struct {
	OrderID     int64  `json:"order_id"`
	PlanName    string `json:"plan_name"`
	Amount      int64  `json:"amount"`
	TelegramID  int64  `json:"telegram_id"`
	Username    string `json:"username"`
	ReceiptPath string `json:"receipt_path,omitempty"`
}

// CredentialsMessage — реквизиты выданного аккаунта для покупателя.
type CredentialsMessage struct {
	TelegramID int64                     `json:"telegram_id"`
	PlanName   string                    `json:"plan_name"`
	Account    models.ProvisionedAccount `json:"account"`
}

// RejectionMessage — отказ по заказу для покупателя.
type RejectionMessage struct {
	TelegramID int64  `json:"telegram_id"`
	PlanName   string `json:"plan_name"`
	Note       string `json:"note,omitempty"`
}

// ExpiryMessage — предупреждение о скором окончании аккаунта.
type ExpiryMessage struct {
	AccountID  int64     `json:"account_id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	ExpiresAt  time.Time `json:"expires_at"`
}

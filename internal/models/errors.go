package models

import "errors"

// Ошибки бизнес-логики. Хранилище и сервисы возвращают их (обёрнутыми через
// fmt.Errorf("%s: %w", ...)), обработчики проверяют errors.Is и переводят
// в машиночитаемый kind ответа.
var (
	// ErrNotFound — запрошенная сущность не существует или принадлежит другому пользователю.
	ErrNotFound = errors.New("not found")
	// ErrOrderConflict — у пользователя уже есть незавершённый заказ.
	ErrOrderConflict = errors.New("user already has an open order")
	// ErrInvalidState — действие недопустимо для текущего статуса заказа.
	ErrInvalidState = errors.New("action not allowed for current order status")
	// ErrUpstream — внешняя система (панель VPN) недоступна или ответила ошибкой.
	ErrUpstream = errors.New("upstream service failed")
)

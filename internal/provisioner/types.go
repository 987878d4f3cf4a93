package provisioner

// Запрос на создание пользователя в панели Hiddify
type CreateUserRequest struct {
	Name         string `json:"name"`
	PackageDays  int    `json:"package_days"`
	UsageLimitGB *int   `json:"usage_limit_GB,omitempty"`
	TelegramID   int64  `json:"telegram_id,omitempty"`
	Comment      string `json:"comment,omitempty"`
	Mode         string `json:"mode"`
}

// Ответ панели Hiddify при создании пользователя
type CreateUserResponse struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	PackageDays int    `json:"package_days"`
}

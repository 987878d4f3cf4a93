// Package sl содержит мелкие помощники для структурированного логирования
// через slog.
package sl

import "log/slog"

// Err оборачивает ошибку в slog.Attr с ключом "error", чтобы во всех логах
// ошибки выводились одинаково:
//
//	log.Error("failed to create order", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.String("error", err.Error())
}

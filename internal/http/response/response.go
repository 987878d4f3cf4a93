// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Помимо текста ошибки ответ
// несёт машиночитаемый kind, по которому клиент различает классы отказов.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/tgauth"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Kind   string `json:"kind" example:"validation"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Классы ошибок в поле kind.
const (
	KindValidation   = "validation"
	KindVerification = "verification"
	KindConflict     = "conflict"
	KindInvalidState = "invalid_state"
	KindNotFound     = "not_found"
	KindUpstream     = "upstream"
	KindInternal     = "internal"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой данного класса и сообщением.
func Error(kind, msg string) Response {
	return Response{
		Status: StatusError,
		Kind:   kind,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is below the allowed minimum", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is above the allowed maximum", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Kind:   KindValidation,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// FromError переводит ошибку бизнес-уровня в HTTP-статус и Response.
// Неопознанные ошибки считаются внутренними и не раскрывают деталей.
func FromError(err error) (int, Response) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, Error(KindNotFound, "not found")
	case errors.Is(err, models.ErrOrderConflict):
		return http.StatusConflict, Error(KindConflict, "user already has an open order")
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict, Error(KindInvalidState, "action not allowed for current order status")
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway, Error(KindUpstream, "upstream service failed")
	case errors.Is(err, tgauth.ErrHashMissing),
		errors.Is(err, tgauth.ErrHashMismatch),
		errors.Is(err, tgauth.ErrStaleAuth),
		errors.Is(err, tgauth.ErrMalformed):
		return http.StatusUnauthorized, Error(KindVerification, "telegram signature verification failed")
	default:
		return http.StatusInternalServerError, Error(KindInternal, "internal error")
	}
}

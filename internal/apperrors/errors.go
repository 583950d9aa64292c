package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind определяет категорию ошибки приложения
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindProvider
	KindValidation
	KindStorage
)

// Error представляет типизированную ошибку с категорией.
// Категория транслируется в HTTP статус только на границе обработчиков.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error реализует интерфейс error
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap возвращает вложенную ошибку
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound создает ошибку отсутствия ресурса
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Provider создает ошибку внешнего провайдера синтеза
func Provider(message string, err error) *Error {
	return &Error{Kind: KindProvider, Message: message, Err: err}
}

// Validation создает ошибку валидации входных данных
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Storage создает ошибку файлового хранилища
func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// Internal создает внутреннюю ошибку
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf возвращает категорию ошибки, KindInternal для нетипизированных
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus возвращает HTTP статус для категории ошибки
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindProvider, KindStorage, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage возвращает сообщение, безопасное для ответа клиенту
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "внутренняя ошибка сервера"
}

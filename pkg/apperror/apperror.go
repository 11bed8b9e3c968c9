// Пакет apperror описывает типизированные ошибки приложения:
// ошибки валидации, отсутствия записи и ошибки хранилища
package apperror

import (
	"errors"
	"fmt"
)

// Kind категория ошибки
type Kind string

const (
	// KindValidation некорректная форма запроса
	KindValidation Kind = "validation"
	// KindNotFound неизвестный идентификатор родителя или дочерней записи
	KindNotFound Kind = "not_found"
	// KindPersistence сбой хранилища, возвращается как есть, без повторов
	KindPersistence Kind = "persistence"
)

// Error ошибка приложения с категорией, сообщением и деталями
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Cause   error
}

// New создаёт ошибку заданной категории
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation создаёт ошибку валидации
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// NotFound создаёт ошибку отсутствия записи
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Persistence оборачивает ошибку хранилища, op описывает операцию ("begin transaction")
func Persistence(op string, cause error) *Error {
	return &Error{Kind: KindPersistence, Message: "failed to " + op, Cause: cause}
}

// WithDetail добавляет деталь к ошибке и возвращает её же
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap возвращает исходную ошибку
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по категории, поэтому errors.Is(err, repository.ErrNotFound)
// срабатывает для любой ошибки KindNotFound
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf возвращает категорию ошибки, для неизвестных ошибок: KindPersistence
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// DetailsOf возвращает детали ошибки или пустую map
func DetailsOf(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) && e.Details != nil {
		return e.Details
	}
	return map[string]interface{}{}
}

package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized возвращается на 401: сессия устройства истекла или отозвана
var ErrUnauthorized = errors.New("unauthorized: device session expired or revoked")

// TransientError обозначает временный сбой (сеть, таймаут, 5xx, 429).
// Оркестратор повторяет такие операции по расписанию backoff.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// ValidationError обозначает постоянный отказ сервера (4xx валидация).
// Повтор бессмысленен - элемент очереди уходит в dead-letter сразу.
type ValidationError struct {
	Message string
	Status  int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d): %s", e.Status, e.Message)
}

// IsTransient reports whether the error should be retried with backoff
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsValidation reports whether the error is a permanent rejection
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

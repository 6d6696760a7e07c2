package accounts

import "errors"

var (
	// ErrAccountNotFound возвращается, когда профиль пользователя не найден
	ErrAccountNotFound = errors.New("account not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("accounts client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("accounts client: invalid response")

	// ErrServiceDegraded возвращается при применении graceful degradation
	// Сервис аккаунтов недоступен, бронирование создается без имени студента
	ErrServiceDegraded = errors.New("accounts service unavailable: graceful degradation applied")
)

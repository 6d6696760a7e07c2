package availability

import "errors"

var (
	// ErrBlockedRangeNotFound возвращается, когда закрытый период не найден
	ErrBlockedRangeNotFound = errors.New("blocked range not found")

	// ErrAccessDenied возвращается, когда расписание меняет не преподаватель
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)

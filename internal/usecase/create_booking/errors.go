package create_booking

import "errors"

var (
	// ErrAccessDenied возвращается, когда бронирование создает не ученик
	ErrAccessDenied = errors.New("create_booking: only students can book lessons")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)

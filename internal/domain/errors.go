package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation некорректные входные данные
	ErrValidation = errors.New("validation error")

	// ErrRejected запрос отклонен правилами бронирования, причина в обернутой ошибке
	ErrRejected = errors.New("rejected")

	// ErrInvalidTransition перехода статуса нет в таблице или запись изменилась параллельно
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("not found")

	// ErrForbidden у инициатора нет прав на операцию
	ErrForbidden = errors.New("forbidden")

	// ErrBackendUnavailable сбой внешнего хранилища или сервиса
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Причины отказа
var (
	ErrSlotInPast                = fmt.Errorf("%w: slot is in the past", ErrRejected)
	ErrSlotTooSoon               = fmt.Errorf("%w: slot starts too soon", ErrRejected)
	ErrSlotTooFarAhead           = fmt.Errorf("%w: slot is too far ahead", ErrRejected)
	ErrSlotAlreadyTaken          = fmt.Errorf("%w: slot is already taken", ErrRejected)
	ErrDateBlocked               = fmt.Errorf("%w: date is blocked", ErrRejected)
	ErrDayUnavailable            = fmt.Errorf("%w: day is unavailable", ErrRejected)
	ErrSlotNotOffered            = fmt.Errorf("%w: slot is not offered on this day", ErrRejected)
	ErrCancellationWindowExpired = fmt.Errorf("%w: cancellation window expired", ErrRejected)
)

// Reason машинно-читаемый код причины отказа
type Reason string

const (
	ReasonSlotInPast                Reason = "slot_in_past"
	ReasonSlotTooSoon               Reason = "slot_too_soon"
	ReasonSlotTooFarAhead           Reason = "slot_too_far_ahead"
	ReasonSlotAlreadyTaken          Reason = "slot_already_taken"
	ReasonDateBlocked               Reason = "date_blocked"
	ReasonDayUnavailable            Reason = "day_unavailable"
	ReasonSlotNotOffered            Reason = "slot_not_offered"
	ReasonCancellationWindowExpired Reason = "cancellation_window_expired"
)

var reasons = []struct {
	err    error
	reason Reason
	// retryable: слот уже недоступен, можно выбрать другой
	retryable bool
}{
	{ErrSlotAlreadyTaken, ReasonSlotAlreadyTaken, true},
	{ErrDateBlocked, ReasonDateBlocked, true},
	{ErrDayUnavailable, ReasonDayUnavailable, true},
	{ErrSlotNotOffered, ReasonSlotNotOffered, true},
	{ErrSlotInPast, ReasonSlotInPast, false},
	{ErrSlotTooSoon, ReasonSlotTooSoon, false},
	{ErrSlotTooFarAhead, ReasonSlotTooFarAhead, false},
	{ErrCancellationWindowExpired, ReasonCancellationWindowExpired, false},
}

// RejectionReason возвращает код причины, если err - отказ
func RejectionReason(err error) (Reason, bool) {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason, true
		}
	}
	return "", false
}

// IsSlotUnavailable отказ вида "слот больше недоступен" (пользователь может выбрать другой)
func IsSlotUnavailable(err error) bool {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.retryable
		}
	}
	return false
}

package domain

import (
	"fmt"
	"time"
)

// BookingSettings глобальные правила бронирования (одна строка в БД)
type BookingSettings struct {
	MinAdvanceHours  int      // Минимальное время до начала урока при записи
	MaxAdvanceDays   int      // Насколько вперед можно записаться, 0 = без ограничения
	CancelLimitHours int      // За сколько часов до начала еще можно отменить
	LessonPrice      *float64 // Цена урока по умолчанию, копируется в бронирование
	UpdatedAt        time.Time
}

// DefaultBookingSettings настройки, если строка еще не создана
func DefaultBookingSettings() BookingSettings {
	return BookingSettings{
		MinAdvanceHours:  DefaultMinAdvanceHours,
		MaxAdvanceDays:   DefaultMaxAdvanceDays,
		CancelLimitHours: DefaultCancelLimitHours,
	}
}

// HasAdvanceLimit есть ли ограничение на запись вперед
func (s BookingSettings) HasAdvanceLimit() bool {
	return s.MaxAdvanceDays > 0
}

// MinAdvance минимальный запас времени перед уроком
func (s BookingSettings) MinAdvance() time.Duration {
	return time.Duration(s.MinAdvanceHours) * time.Hour
}

// MaxAdvance горизонт записи (0 без ограничения)
func (s BookingSettings) MaxAdvance() time.Duration {
	return time.Duration(s.MaxAdvanceDays) * 24 * time.Hour
}

// CancelLimit окно, внутри которого отмена запрещена
func (s BookingSettings) CancelLimit() time.Duration {
	return time.Duration(s.CancelLimitHours) * time.Hour
}

// Validate проверяет границы значений
func (s BookingSettings) Validate() error {
	if s.MinAdvanceHours < MinAdvanceHoursLimit || s.MinAdvanceHours > MaxAdvanceHoursLimit {
		return fmt.Errorf("%w: min_advance_hours must be between %d and %d",
			ErrValidation, MinAdvanceHoursLimit, MaxAdvanceHoursLimit)
	}
	if s.MaxAdvanceDays < 0 || s.MaxAdvanceDays > MaxAdvanceDaysLimit {
		return fmt.Errorf("%w: max_advance_days must be between 0 and %d", ErrValidation, MaxAdvanceDaysLimit)
	}
	if s.CancelLimitHours < 0 || s.CancelLimitHours > MaxCancelLimitHours {
		return fmt.Errorf("%w: cancel_limit_hours must be between 0 and %d", ErrValidation, MaxCancelLimitHours)
	}
	if s.LessonPrice != nil && *s.LessonPrice < 0 {
		return fmt.Errorf("%w: lesson_price must not be negative", ErrValidation)
	}
	return nil
}

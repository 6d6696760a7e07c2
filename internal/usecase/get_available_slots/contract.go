package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetActiveByDate(ctx context.Context, date time.Time) ([]*domain.Booking, error)
}

// SettingsRepository интерфейс репозитория настроек бронирования
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.BookingSettings, error)
}

// AvailabilityRepository интерфейс репозитория расписания
type AvailabilityRepository interface {
	GetWeeklyDays(ctx context.Context) ([]domain.WeeklyAvailability, error)
	GetBlockedRanges(ctx context.Context, from *time.Time) ([]domain.BlockedRange, error)
}

// SlotResolver вычисление свободных слотов (реализуется resolver.Resolver)
type SlotResolver interface {
	ComputeAvailableSlots(
		date time.Time,
		template domain.WeeklyTemplate,
		blocked []domain.BlockedRange,
		bookings []*domain.Booking,
		now time.Time,
		settings domain.BookingSettings,
	) []domain.Slot
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

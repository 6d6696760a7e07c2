package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/booking"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByStudentID(ctx context.Context, studentID uuid.UUID, status *domain.BookingStatus) ([]*domain.Booking, error)
	GetWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, change bookingRepo.StatusChange) (*domain.Booking, error)
	CompleteFinished(ctx context.Context, before time.Time) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// SettingsRepository интерфейс репозитория настроек бронирования
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.BookingSettings, error)
}

// CancellationPolicy проверка окна отмены (реализуется resolver.Resolver)
type CancellationPolicy interface {
	ValidateCancellation(booking *domain.Booking, now time.Time, settings domain.BookingSettings) error
	Location() *time.Location
}

// Notifier уведомления участникам бронирования
type Notifier interface {
	Dispatch(ctx context.Context, booking *domain.Booking, kind domain.NotificationKind, recipientID uuid.UUID) error
}

// Publisher публикация событий в ленту изменений
type Publisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

// Metrics доменные счетчики (реализуется pkg/metrics, допускает nil)
type Metrics interface {
	IncTransition(from, to string)
	IncBookingRejected(reason string)
	AddSweepCompleted(n int)
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

package create_booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/accounts"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
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

// BookingValidator проверка запроса на бронирование (реализуется resolver.Resolver)
type BookingValidator interface {
	ValidateBookingRequest(
		date time.Time,
		slot domain.TimeRange,
		template domain.WeeklyTemplate,
		blocked []domain.BlockedRange,
		bookings []*domain.Booking,
		now time.Time,
		settings domain.BookingSettings,
	) error
}

// AccountsClient интерфейс клиента сервиса аккаунтов
type AccountsClient interface {
	GetProfileWithGracefulDegradation(ctx context.Context, id uuid.UUID) (*accounts.Profile, error)
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
	IncBookingCreated()
	IncBookingRejected(reason string)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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

package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// AvailabilityRepository интерфейс репозитория недельного шаблона и закрытых периодов
type AvailabilityRepository interface {
	GetWeeklyDays(ctx context.Context) ([]domain.WeeklyAvailability, error)
	ReplaceDay(ctx context.Context, day domain.WeeklyAvailability) (*domain.WeeklyAvailability, error)
	GetBlockedRanges(ctx context.Context, from *time.Time) ([]domain.BlockedRange, error)
	CreateBlockedRange(ctx context.Context, b *domain.BlockedRange) (*domain.BlockedRange, error)
	DeleteBlockedRange(ctx context.Context, id int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

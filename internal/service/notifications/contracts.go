package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/accounts"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/mailer"
)

// NotificationRepository интерфейс репозитория уведомлений
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	GetByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit uint64) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id int64, recipientID uuid.UUID) (bool, error)
}

// AccountsClient интерфейс клиента сервиса аккаунтов
type AccountsClient interface {
	GetProfileWithGracefulDegradation(ctx context.Context, id uuid.UUID) (*accounts.Profile, error)
}

// Publisher публикация событий в ленту изменений
type Publisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

// Mailer отправка писем
type Mailer interface {
	SendAsync(msg mailer.Message)
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

package mark_notification_read

import (
	"context"

	"github.com/google/uuid"
)

type NotificationService interface {
	MarkRead(ctx context.Context, recipientID uuid.UUID, id int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

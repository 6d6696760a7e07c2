package stream_events

import (
	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// EventSource подписка на ленту изменений (реализуется changefeed.Hub)
type EventSource interface {
	Subscribe(filter func(domain.ChangeEvent) bool) (<-chan domain.ChangeEvent, func())
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

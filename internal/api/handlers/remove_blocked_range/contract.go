package remove_blocked_range

import (
	"context"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

type AvailabilityService interface {
	RemoveBlockedRange(ctx context.Context, principal domain.Principal, id int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

package domain

import (
	"time"

	"github.com/m04kA/SMC-TutorBooking/pkg/types"
)

// Slot окно из недельного шаблона на конкретную дату
type Slot struct {
	Date        time.Time
	StartTime   types.TimeString
	EndTime     types.TimeString
	IsAvailable bool
}

// Range окно слота без даты
func (s Slot) Range() TimeRange {
	return TimeRange{Start: s.StartTime, End: s.EndTime}
}

package domain

// Default booking settings
const (
	DefaultMinAdvanceHours  = 2
	DefaultMaxAdvanceDays   = 30
	DefaultCancelLimitHours = 12
)

// Business validation constants
const (
	MinAdvanceHoursLimit        = 0
	MaxAdvanceHoursLimit        = 168 // 1 week
	MaxAdvanceDaysLimit         = 365 // 1 year
	MaxCancelLimitHours         = 168
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
	MaxBlockedReasonLength      = 200
	MaxMeetingLinkLength        = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses статусы, которые занимают слот
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}

// InactiveStatuses статусы, которые слот не занимают
var InactiveStatuses = []BookingStatus{
	StatusCancelled,
	StatusCompleted,
}

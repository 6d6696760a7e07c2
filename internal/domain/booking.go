package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// IsValid returns true for the four known statuses
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Booking represents one reserved lesson slot
type Booking struct {
	ID          int64
	StudentID   uuid.UUID
	StudentName string
	BookingDate time.Time
	StartTime   types.TimeString
	EndTime     types.TimeString
	Status      BookingStatus

	MeetingLink *string
	Notes       *string
	Price       *float64

	CancellationReason *string
	CancelledAt        *time.Time
	CompletedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still holds its slot
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// IsOwnedBy returns true if the booking belongs to the student
func (b *Booking) IsOwnedBy(studentID uuid.UUID) bool {
	return b.StudentID == studentID
}

// Occupies returns true if the booking holds exactly this slot on this calendar day
func (b *Booking) Occupies(date time.Time, slot TimeRange) bool {
	return b.IsActive() &&
		SameDay(b.BookingDate, date) &&
		b.StartTime.Equal(slot.Start) &&
		b.EndTime.Equal(slot.End)
}

// Slot returns the booked time range
func (b *Booking) Slot() TimeRange {
	return TimeRange{Start: b.StartTime, End: b.EndTime}
}

// StartsAt возвращает момент начала урока в зоне loc
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	return b.StartTime.On(b.BookingDate, loc)
}

// EndsAt возвращает момент окончания урока в зоне loc
func (b *Booking) EndsAt(loc *time.Location) time.Time {
	return b.EndTime.On(b.BookingDate, loc)
}

// BookingsFilter фильтр для выборки бронирований
type BookingsFilter struct {
	StudentID       *uuid.UUID     // Только бронирования студента (nil - все)
	StartDate       *time.Time     // Начало периода (опционально)
	EndDate         *time.Time     // Конец периода (опционально)
	Status          *BookingStatus // Фильтр по статусу (опционально)
	IncludeInactive bool           // Включать ли отмененные и завершенные
}

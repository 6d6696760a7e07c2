package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind тип уведомления
type NotificationKind string

const (
	NotificationBookingRequested NotificationKind = "booking_requested"
	NotificationBookingConfirmed NotificationKind = "booking_confirmed"
	NotificationBookingCancelled NotificationKind = "booking_cancelled"
)

// Notification уведомление пользователю
type Notification struct {
	ID          int64
	RecipientID uuid.UUID
	BookingID   *int64
	Kind        NotificationKind
	Title       string
	Body        string
	IsRead      bool
	CreatedAt   time.Time
}

// ChangeKind тип изменения в ленте изменений
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeEntity сущность, к которой относится изменение
type ChangeEntity string

const (
	EntityBooking      ChangeEntity = "booking"
	EntityNotification ChangeEntity = "notification"
)

// ChangeEvent событие ленты изменений
// Audience - кому адресовано (пусто - только преподавателю)
type ChangeEvent struct {
	Entity     ChangeEntity `json:"entity"`
	Kind       ChangeKind   `json:"kind"`
	ID         int64        `json:"id"`
	Status     string       `json:"status,omitempty"`
	Audience   *uuid.UUID   `json:"audience,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// DefaultLimit сколько уведомлений отдавать, если лимит не задан
const DefaultLimit = 50

// MaxLimit верхняя граница лимита
const MaxLimit = 200

// ListRequest запрос списка уведомлений
type ListRequest struct {
	RecipientID uuid.UUID
	UnreadOnly  bool
	Limit       int
}

// NotificationResponse уведомление для API
type NotificationResponse struct {
	ID        int64     `json:"id"`
	BookingID *int64    `json:"bookingId,omitempty"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationListResponse список уведомлений со счетчиком непрочитанных
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

// FromDomainNotification конвертирует доменную модель в ответ API
func FromDomainNotification(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		BookingID: n.BookingID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

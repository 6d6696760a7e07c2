package update_booking_status

import (
	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/internal/service/bookings/models"
)

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Status      string   `json:"status"`
	MeetingLink *string  `json:"meetingLink,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Reason      *string  `json:"reason,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpdateStatusRequest) ToServiceRequest(principal domain.Principal) *models.UpdateStatusRequest {
	return &models.UpdateStatusRequest{
		Principal:   principal,
		Status:      r.Status,
		MeetingLink: r.MeetingLink,
		Price:       r.Price,
		Reason:      r.Reason,
	}
}

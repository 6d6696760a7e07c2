package set_day_availability

import (
	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/internal/service/availability/models"
)

// SetDayRequest HTTP request model
type SetDayRequest struct {
	IsAvailable bool               `json:"isAvailable"`
	Slots       []models.SlotInput `json:"slots"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *SetDayRequest) ToServiceRequest(principal domain.Principal, dayOfWeek int) *models.SetDayRequest {
	return &models.SetDayRequest{
		Principal:   principal,
		DayOfWeek:   dayOfWeek,
		IsAvailable: r.IsAvailable,
		Slots:       r.Slots,
	}
}

package add_blocked_range

import (
	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/internal/service/availability/models"
)

// AddBlockedRangeRequest HTTP request model
type AddBlockedRangeRequest struct {
	StartDate string `json:"startDate"` // "2026-12-30"
	EndDate   string `json:"endDate"`   // "2027-01-08"
	Reason    string `json:"reason"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *AddBlockedRangeRequest) ToServiceRequest(principal domain.Principal) *models.AddBlockedRangeRequest {
	return &models.AddBlockedRangeRequest{
		Principal: principal,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Reason:    r.Reason,
	}
}

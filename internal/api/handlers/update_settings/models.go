package update_settings

import (
	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/internal/service/settings/models"
)

// UpdateSettingsRequest HTTP request model, поля не из запроса не меняются
type UpdateSettingsRequest struct {
	MinAdvanceHours  *int     `json:"minAdvanceHours,omitempty"`
	MaxAdvanceDays   *int     `json:"maxAdvanceDays,omitempty"`
	CancelLimitHours *int     `json:"cancelLimitHours,omitempty"`
	LessonPrice      *float64 `json:"lessonPrice,omitempty"`
	ClearLessonPrice bool     `json:"clearLessonPrice,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpdateSettingsRequest) ToServiceRequest(principal domain.Principal) *models.UpdateSettingsRequest {
	return &models.UpdateSettingsRequest{
		Principal:        principal,
		MinAdvanceHours:  r.MinAdvanceHours,
		MaxAdvanceDays:   r.MaxAdvanceDays,
		CancelLimitHours: r.CancelLimitHours,
		LessonPrice:      r.LessonPrice,
		ClearLessonPrice: r.ClearLessonPrice,
	}
}

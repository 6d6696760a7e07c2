package models

import (
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// UpdateSettingsRequest запрос на обновление настроек
// Все поля опциональны - обновляются только переданные значения
type UpdateSettingsRequest struct {
	Principal        domain.Principal `json:"-"`
	MinAdvanceHours  *int             `json:"minAdvanceHours,omitempty"`
	MaxAdvanceDays   *int             `json:"maxAdvanceDays,omitempty"` // 0 = без ограничений
	CancelLimitHours *int             `json:"cancelLimitHours,omitempty"`
	LessonPrice      *float64         `json:"lessonPrice,omitempty"`
	ClearLessonPrice bool             `json:"clearLessonPrice,omitempty"` // убрать цену по умолчанию
}

// ApplyTo применяет обновления к настройкам
func (r *UpdateSettingsRequest) ApplyTo(s *domain.BookingSettings) {
	if r.MinAdvanceHours != nil {
		s.MinAdvanceHours = *r.MinAdvanceHours
	}
	if r.MaxAdvanceDays != nil {
		s.MaxAdvanceDays = *r.MaxAdvanceDays
	}
	if r.CancelLimitHours != nil {
		s.CancelLimitHours = *r.CancelLimitHours
	}
	if r.LessonPrice != nil {
		price := *r.LessonPrice
		s.LessonPrice = &price
	}
	if r.ClearLessonPrice {
		s.LessonPrice = nil
	}
}

// SettingsResponse ответ с настройками бронирования
type SettingsResponse struct {
	MinAdvanceHours  int        `json:"minAdvanceHours"`
	MaxAdvanceDays   int        `json:"maxAdvanceDays"`
	CancelLimitHours int        `json:"cancelLimitHours"`
	LessonPrice      *float64   `json:"lessonPrice,omitempty"`
	IsDefault        bool       `json:"isDefault"` // настройки еще не сохранялись
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// FromDomainSettings конвертирует domain модель в DTO
func FromDomainSettings(s *domain.BookingSettings, isDefault bool) *SettingsResponse {
	resp := &SettingsResponse{
		MinAdvanceHours:  s.MinAdvanceHours,
		MaxAdvanceDays:   s.MaxAdvanceDays,
		CancelLimitHours: s.CancelLimitHours,
		LessonPrice:      s.LessonPrice,
		IsDefault:        isDefault,
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

package models

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/pkg/types"
)

// Request модели

// SlotInput окно времени в запросе ("10:00" - "11:00")
type SlotInput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SetDayRequest запрос на перезапись дня недели
type SetDayRequest struct {
	Principal   domain.Principal `json:"-"`
	DayOfWeek   int              `json:"-"` // из пути запроса
	IsAvailable bool             `json:"isAvailable"`
	Slots       []SlotInput      `json:"slots"`
}

// ToDomain конвертирует запрос в доменный день недели
func (r *SetDayRequest) ToDomain() (domain.WeeklyAvailability, error) {
	day := domain.WeeklyAvailability{
		DayOfWeek:   r.DayOfWeek,
		IsAvailable: r.IsAvailable,
		Slots:       make([]domain.TimeRange, 0, len(r.Slots)),
	}

	for i, s := range r.Slots {
		start, err := types.NewTimeStringFromString(s.Start)
		if err != nil {
			return day, fmt.Errorf("slot %d: invalid start %q", i, s.Start)
		}
		end, err := types.NewTimeStringFromString(s.End)
		if err != nil {
			return day, fmt.Errorf("slot %d: invalid end %q", i, s.End)
		}
		day.Slots = append(day.Slots, domain.TimeRange{Start: start, End: end})
	}

	return day, nil
}

// AddBlockedRangeRequest запрос на закрытие периода
type AddBlockedRangeRequest struct {
	Principal domain.Principal `json:"-"`
	StartDate string           `json:"startDate"` // "2026-12-30"
	EndDate   string           `json:"endDate"`   // "2027-01-08"
	Reason    string           `json:"reason"`
}

// Response модели

// SlotResponse окно времени
type SlotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayResponse шаблон дня недели
type DayResponse struct {
	DayOfWeek   int            `json:"dayOfWeek"`
	IsAvailable bool           `json:"isAvailable"`
	Slots       []SlotResponse `json:"slots"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
}

// WeeklyTemplateResponse недельный шаблон, всегда 7 дней
type WeeklyTemplateResponse struct {
	Days []DayResponse `json:"days"`
}

// BlockedRangeResponse закрытый период
type BlockedRangeResponse struct {
	ID        int64     `json:"id"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlockedRangeListResponse список закрытых периодов
type BlockedRangeListResponse struct {
	BlockedRanges []BlockedRangeResponse `json:"blockedRanges"`
}

// AvailabilityResponse шаблон и закрытые периоды одним ответом
type AvailabilityResponse struct {
	WeeklyTemplateResponse
	BlockedRangeListResponse
}

// Методы конвертации

// FromDomainDay конвертирует день недели в DTO
func FromDomainDay(d domain.WeeklyAvailability) DayResponse {
	resp := DayResponse{
		DayOfWeek:   d.DayOfWeek,
		IsAvailable: d.IsAvailable,
		Slots:       make([]SlotResponse, 0, len(d.Slots)),
	}
	for _, s := range d.SortedSlots() {
		resp.Slots = append(resp.Slots, SlotResponse{Start: s.Start.String(), End: s.End.String()})
	}
	if !d.UpdatedAt.IsZero() {
		updated := d.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// FromDomainTemplate конвертирует недельный шаблон в DTO
func FromDomainTemplate(t domain.WeeklyTemplate) WeeklyTemplateResponse {
	resp := WeeklyTemplateResponse{Days: make([]DayResponse, 0, domain.DaysInWeek)}
	for _, d := range t {
		resp.Days = append(resp.Days, FromDomainDay(d))
	}
	return resp
}

// FromDomainBlockedRange конвертирует закрытый период в DTO
func FromDomainBlockedRange(b domain.BlockedRange) BlockedRangeResponse {
	return BlockedRangeResponse{
		ID:        b.ID,
		StartDate: b.StartDate.Format(domain.DateFormat),
		EndDate:   b.EndDate.Format(domain.DateFormat),
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt,
	}
}

// FromDomainBlockedRanges конвертирует список закрытых периодов в DTO
func FromDomainBlockedRanges(list []domain.BlockedRange) BlockedRangeListResponse {
	resp := BlockedRangeListResponse{BlockedRanges: make([]BlockedRangeResponse, 0, len(list))}
	for _, b := range list {
		resp.BlockedRanges = append(resp.BlockedRanges, FromDomainBlockedRange(b))
	}
	return resp
}

package models

import (
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// MonthLayout формат месяца в отчете
const MonthLayout = "2006-01"

// ReportRequest запрос отчета по проведенным урокам
type ReportRequest struct {
	Principal domain.Principal
	StartDate *time.Time // Начало периода (опционально)
	EndDate   *time.Time // Конец периода (опционально)
}

// EntryResponse проведенный урок
type EntryResponse struct {
	BookingID   int64    `json:"bookingId"`
	BookingDate string   `json:"bookingDate"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	StudentName string   `json:"studentName"`
	Price       *float64 `json:"price,omitempty"`
}

// MonthTotalResponse итоги за месяц
type MonthTotalResponse struct {
	Month    string  `json:"month"` // "2026-10"
	Lessons  int     `json:"lessons"`
	Unpriced int     `json:"unpriced"` // уроки без цены
	Total    float64 `json:"total"`
}

// ReportResponse история оплат: уроки и итоги по месяцам
type ReportResponse struct {
	Entries []EntryResponse      `json:"entries"`
	Months  []MonthTotalResponse `json:"months"`
	Lessons int                  `json:"lessons"`
	Total   float64              `json:"total"`
}

// FromDomainBooking конвертирует завершенное бронирование в строку отчета
func FromDomainBooking(b *domain.Booking) EntryResponse {
	return EntryResponse{
		BookingID:   b.ID,
		BookingDate: b.BookingDate.Format(domain.DateFormat),
		StartTime:   b.StartTime.String(),
		EndTime:     b.EndTime.String(),
		StudentName: b.StudentName,
		Price:       b.Price,
	}
}

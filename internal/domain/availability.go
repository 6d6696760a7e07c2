package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-TutorBooking/pkg/types"
)

// DaysInWeek количество дней в недельном шаблоне (Sunday=0 .. Saturday=6)
const DaysInWeek = 7

// TimeRange окно времени внутри дня [Start, End)
type TimeRange struct {
	Start types.TimeString
	End   types.TimeString
}

// Validate проверяет, что Start < End
func (r TimeRange) Validate() error {
	if err := r.Start.Validate(); err != nil {
		return fmt.Errorf("%w: invalid start time", ErrValidation)
	}
	if r.End.IsZero() {
		return fmt.Errorf("%w: invalid end time", ErrValidation)
	}
	if !r.Start.IsBefore(r.End) {
		return fmt.Errorf("%w: slot start %s must be before end %s", ErrValidation, r.Start, r.End)
	}
	return nil
}

// Overlaps пересекаются ли окна (касание границами не считается)
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.IsBefore(other.End) && other.Start.IsBefore(r.End)
}

// Equal совпадают ли окна
func (r TimeRange) Equal(other TimeRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// WeeklyAvailability шаблон одного дня недели
type WeeklyAvailability struct {
	DayOfWeek   int
	IsAvailable bool
	Slots       []TimeRange
	UpdatedAt   time.Time
}

// Validate проверяет день недели, слоты и их непересечение
func (w WeeklyAvailability) Validate() error {
	if w.DayOfWeek < 0 || w.DayOfWeek >= DaysInWeek {
		return fmt.Errorf("%w: day of week %d out of range 0..6", ErrValidation, w.DayOfWeek)
	}
	if !w.IsAvailable && len(w.Slots) > 0 {
		return fmt.Errorf("%w: unavailable day must not have slots", ErrValidation)
	}

	sorted := w.SortedSlots()
	for i, slot := range sorted {
		if err := slot.Validate(); err != nil {
			return err
		}
		if i > 0 && sorted[i-1].Overlaps(slot) {
			return fmt.Errorf("%w: slots %s and %s overlap", ErrValidation, sorted[i-1], slot)
		}
	}

	return nil
}

// SortedSlots возвращает копию слотов, отсортированную по началу
func (w WeeklyAvailability) SortedSlots() []TimeRange {
	sorted := make([]TimeRange, len(w.Slots))
	copy(sorted, w.Slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.IsBefore(sorted[j].Start)
	})
	return sorted
}

// Offers входит ли окно в шаблон дня
func (w WeeklyAvailability) Offers(slot TimeRange) bool {
	for _, s := range w.Slots {
		if s.Equal(slot) {
			return true
		}
	}
	return false
}

// WeeklyTemplate полный недельный шаблон, индекс - день недели
type WeeklyTemplate [DaysInWeek]WeeklyAvailability

// NewWeeklyTemplate собирает шаблон из сохраненных дней
// Дни, которые ни разу не настраивались, считаются недоступными
func NewWeeklyTemplate(days []WeeklyAvailability) WeeklyTemplate {
	var template WeeklyTemplate
	for i := range template {
		template[i] = WeeklyAvailability{DayOfWeek: i, Slots: []TimeRange{}}
	}
	for _, day := range days {
		if day.DayOfWeek < 0 || day.DayOfWeek >= DaysInWeek {
			continue
		}
		if day.Slots == nil {
			day.Slots = []TimeRange{}
		}
		template[day.DayOfWeek] = day
	}
	return template
}

// Day шаблон дня недели для календарной даты
func (t WeeklyTemplate) Day(date time.Time) WeeklyAvailability {
	return t[int(date.Weekday())]
}

// BlockedRange закрытый период, включительно по календарным дням
type BlockedRange struct {
	ID        int64
	StartDate time.Time
	EndDate   time.Time
	Reason    string
	CreatedAt time.Time
}

// Validate проверяет StartDate <= EndDate
func (b BlockedRange) Validate() error {
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return fmt.Errorf("%w: blocked range dates are required", ErrValidation)
	}
	if CivilDay(b.StartDate) > CivilDay(b.EndDate) {
		return fmt.Errorf("%w: blocked range start %s is after end %s",
			ErrValidation, b.StartDate.Format(DateFormat), b.EndDate.Format(DateFormat))
	}
	if len(b.Reason) > MaxBlockedReasonLength {
		return fmt.Errorf("%w: reason is too long", ErrValidation)
	}
	return nil
}

// Contains попадает ли календарный день date в период
func (b BlockedRange) Contains(date time.Time) bool {
	day := CivilDay(date)
	return CivilDay(b.StartDate) <= day && day <= CivilDay(b.EndDate)
}

// CivilDay календарный день как число YYYYMMDD, без учета времени и зоны
func CivilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// SameDay совпадают ли календарные дни
func SameDay(a, b time.Time) bool {
	return CivilDay(a) == CivilDay(b)
}

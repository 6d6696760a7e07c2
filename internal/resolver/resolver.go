// Package resolver вычисляет доступные слоты и проверяет запросы на бронирование и отмену.
// Пакет чистый: все данные (шаблон, блокировки, бронирования, текущее время, настройки)
// передаются параметрами, ввода-вывода нет.
package resolver

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// Resolver правила слотов в часовом поясе преподавателя
type Resolver struct {
	loc *time.Location
}

// New создает резолвер. Время слотов из шаблона интерпретируется в зоне loc
func New(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc}
}

// Location часовой пояс резолвера
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// ComputeAvailableSlots возвращает слоты даты, на которые можно записаться
func (r *Resolver) ComputeAvailableSlots(
	date time.Time,
	template domain.WeeklyTemplate,
	blocked []domain.BlockedRange,
	bookings []*domain.Booking,
	now time.Time,
	settings domain.BookingSettings,
) []domain.Slot {
	result := make([]domain.Slot, 0)

	// Шаг 1: дата в закрытом периоде
	if isBlocked(date, blocked) {
		return result
	}

	// Шаг 2: день недели недоступен
	day := template.Day(date)
	if !day.IsAvailable {
		return result
	}

	// Шаги 3-5: слоты шаблона минус слишком ранние/поздние и занятые
	for _, slot := range day.SortedSlots() {
		if err := r.checkLeadTime(date, slot, now, settings); err != nil {
			continue
		}
		if isTaken(date, slot, bookings) {
			continue
		}

		result = append(result, domain.Slot{
			Date:        date,
			StartTime:   slot.Start,
			EndTime:     slot.End,
			IsAvailable: true,
		})
	}

	return result
}

// ValidateBookingRequest повторяет проверки ComputeAvailableSlots для одного слота
// непосредственно перед созданием бронирования. Возвращает nil или отказ с причиной
func (r *Resolver) ValidateBookingRequest(
	date time.Time,
	slot domain.TimeRange,
	template domain.WeeklyTemplate,
	blocked []domain.BlockedRange,
	bookings []*domain.Booking,
	now time.Time,
	settings domain.BookingSettings,
) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	if err := slot.Validate(); err != nil {
		return err
	}

	if isBlocked(date, blocked) {
		return domain.ErrDateBlocked
	}

	day := template.Day(date)
	if !day.IsAvailable {
		return domain.ErrDayUnavailable
	}
	if !day.Offers(slot) {
		return domain.ErrSlotNotOffered
	}

	if err := r.checkLeadTime(date, slot, now, settings); err != nil {
		return err
	}

	if isTaken(date, slot, bookings) {
		return domain.ErrSlotAlreadyTaken
	}

	return nil
}

// ValidateCancellation проверяет окно отмены: отменить можно только до slotStart - cancelLimitHours
func (r *Resolver) ValidateCancellation(booking *domain.Booking, now time.Time, settings domain.BookingSettings) error {
	deadline := booking.StartsAt(r.loc).Add(-settings.CancelLimit())
	if !now.Before(deadline) {
		return domain.ErrCancellationWindowExpired
	}
	return nil
}

// SlotStart момент начала слота на дату в зоне резолвера
func (r *Resolver) SlotStart(date time.Time, slot domain.TimeRange) time.Time {
	return slot.Start.On(date, r.loc)
}

// checkLeadTime проверяет слот относительно now: не в прошлом, не раньше minAdvance, не дальше maxAdvance
func (r *Resolver) checkLeadTime(date time.Time, slot domain.TimeRange, now time.Time, settings domain.BookingSettings) error {
	start := r.SlotStart(date, slot)

	if !start.After(now) {
		return domain.ErrSlotInPast
	}
	if start.Before(now.Add(settings.MinAdvance())) {
		return domain.ErrSlotTooSoon
	}
	if settings.HasAdvanceLimit() && start.After(now.Add(settings.MaxAdvance())) {
		return domain.ErrSlotTooFarAhead
	}

	return nil
}

func isBlocked(date time.Time, blocked []domain.BlockedRange) bool {
	for _, b := range blocked {
		if b.Contains(date) {
			return true
		}
	}
	return false
}

// isTaken совпадение по точным start/end с активным бронированием той же даты
// Частичные пересечения слотов разной длины не проверяются: слоты шаблона не пересекаются
func isTaken(date time.Time, slot domain.TimeRange, bookings []*domain.Booking) bool {
	for _, b := range bookings {
		if b != nil && b.Occupies(date, slot) {
			return true
		}
	}
	return false
}

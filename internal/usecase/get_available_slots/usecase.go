package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	settingsRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/settings"
)

// UseCase use case для получения доступных слотов для бронирования
type UseCase struct {
	bookingRepo      BookingRepository
	settingsRepo     SettingsRepository
	availabilityRepo AvailabilityRepository
	resolver         SlotResolver
	timeProvider     TimeProvider
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	settingsRepo SettingsRepository,
	availabilityRepo AvailabilityRepository,
	resolver SlotResolver,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:      bookingRepo,
		settingsRepo:     settingsRepo,
		availabilityRepo: availabilityRepo,
		resolver:         resolver,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if req == nil || req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	uc.logger.Info("GetAvailableSlots: date=%s", req.Date.Format(domain.DateFormat))

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Настройки бронирования, если строки нет - дефолтные
	settings := domain.DefaultBookingSettings()
	stored, err := uc.settingsRepo.Get(ctx)
	switch {
	case err == nil:
		settings = *stored
	case errors.Is(err, settingsRepo.ErrSettingsNotFound):
		uc.logger.Info("GetAvailableSlots: using default settings")
	default:
		uc.logger.Error("GetAvailableSlots: failed to get settings: %v", err)
		return nil, fmt.Errorf("%w: failed to get settings: %v", ErrInternal, err)
	}

	// 4. Недельный шаблон
	days, err := uc.availabilityRepo.GetWeeklyDays(ctx)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get weekly template: %v", err)
		return nil, fmt.Errorf("%w: failed to get weekly template: %v", ErrInternal, err)
	}

	// 5. Закрытые периоды, которые еще не закончились к этой дате
	blocked, err := uc.availabilityRepo.GetBlockedRanges(ctx, &req.Date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get blocked ranges: %v", err)
		return nil, fmt.Errorf("%w: failed to get blocked ranges: %v", ErrInternal, err)
	}

	// 6. Активные бронирования на дату
	bookings, err := uc.bookingRepo.GetActiveByDate(ctx, req.Date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 7. Вычисляем свободные слоты
	available := uc.resolver.ComputeAvailableSlots(
		req.Date,
		domain.NewWeeklyTemplate(days),
		blocked,
		bookings,
		now,
		settings,
	)

	slots := make([]Slot, 0, len(available))
	for _, s := range available {
		slots = append(slots, Slot{StartTime: s.StartTime, EndTime: s.EndTime})
	}

	uc.logger.Info("GetAvailableSlots: %d slots for date=%s", len(slots), req.Date.Format(domain.DateFormat))

	return &Response{
		Date:  req.Date,
		Slots: slots,
	}, nil
}

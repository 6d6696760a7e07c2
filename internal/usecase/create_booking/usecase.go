package create_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/booking"
	settingsRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/settings"
	"github.com/m04kA/SMC-TutorBooking/pkg/ptr"
	"github.com/m04kA/SMC-TutorBooking/pkg/txmanager"
)

// fallbackStudentName имя в бронировании, если сервис аккаунтов не ответил
const fallbackStudentName = "Ученик"

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo      BookingRepository
	settingsRepo     SettingsRepository
	availabilityRepo AvailabilityRepository
	validator        BookingValidator
	accounts         AccountsClient
	notifier         Notifier
	publisher        Publisher
	metrics          Metrics
	txManager        TransactionManager
	teacherID        uuid.UUID
	timeProvider     TimeProvider
	logger           Logger
}

// Deps зависимости use case
type Deps struct {
	BookingRepo      BookingRepository
	SettingsRepo     SettingsRepository
	AvailabilityRepo AvailabilityRepository
	Validator        BookingValidator
	Accounts         AccountsClient
	Notifier         Notifier
	Publisher        Publisher
	Metrics          Metrics
	TxManager        TransactionManager
}

// NewUseCase создает новый экземпляр use case
// teacherID - получатель уведомлений о новых заявках
func NewUseCase(deps Deps, teacherID uuid.UUID, logger Logger) *UseCase {
	return &UseCase{
		bookingRepo:      deps.BookingRepo,
		settingsRepo:     deps.SettingsRepo,
		availabilityRepo: deps.AvailabilityRepo,
		validator:        deps.Validator,
		accounts:         deps.Accounts,
		notifier:         deps.Notifier,
		publisher:        deps.Publisher,
		metrics:          deps.Metrics,
		txManager:        deps.TxManager,
		teacherID:        teacherID,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Execute выполняет use case создания бронирования
// Проверка слота и вставка выполняются в сериализуемой транзакции,
// окончательно двойную запись отсекает уникальный индекс
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is required", ErrInvalidInput)
	}

	uc.logger.Info("CreateBooking: student=%s, date=%s, slot=%s-%s",
		req.Principal.ID, req.Date.Format(domain.DateFormat), req.StartTime, req.EndTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Имя ученика для карточки бронирования
	studentName := uc.studentName(ctx, req)

	var result *domain.Booking

	// 3. Проверка и вставка в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Настройки бронирования
		settings, err := uc.settings(txCtx)
		if err != nil {
			return err
		}

		// 3.2. Расписание на дату
		days, err := uc.availabilityRepo.GetWeeklyDays(txCtx)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get weekly template: %v", err)
			return fmt.Errorf("%w: failed to get weekly template: %v", ErrInternal, err)
		}

		blocked, err := uc.availabilityRepo.GetBlockedRanges(txCtx, &req.Date)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get blocked ranges: %v", err)
			return fmt.Errorf("%w: failed to get blocked ranges: %v", ErrInternal, err)
		}

		// 3.3. Активные бронирования дня с блокировкой (FOR UPDATE)
		bookings, err := uc.bookingRepo.GetActiveByDate(txCtx, req.Date)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get bookings: %v", err)
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		// 3.4. Правила бронирования на момент записи
		err = uc.validator.ValidateBookingRequest(
			req.Date,
			req.Slot(),
			domain.NewWeeklyTemplate(days),
			blocked,
			bookings,
			uc.timeProvider.Now(),
			settings,
		)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			return err
		}

		// 3.5. Сохраняем заявку, цена берется из настроек
		booking := &domain.Booking{
			StudentID:   req.Principal.ID,
			StudentName: studentName,
			BookingDate: req.Date,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Status:      domain.StatusPending,
			Notes:       req.Notes,
			Price:       settings.LessonPrice,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrSlotNotAvailable) {
				return domain.ErrSlotAlreadyTaken
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if errors.Is(err, txmanager.ErrSerializationFailure) {
		// Параллельная транзакция успела занять слот
		err = domain.ErrSlotAlreadyTaken
	}
	if err != nil {
		if reason, ok := domain.RejectionReason(err); ok {
			uc.metrics.IncBookingRejected(string(reason))
			uc.logger.Warn("CreateBooking: rejected student=%s date=%s slot=%s-%s: %s",
				req.Principal.ID, req.Date.Format(domain.DateFormat), req.StartTime, req.EndTime, reason)
			return nil, err
		}
		if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInternal) {
			return nil, err
		}
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: transaction failed: %v", ErrInternal, err)
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d", result.ID)

	// 4. Побочные эффекты не должны влиять на ответ
	uc.afterCreate(context.WithoutCancel(ctx), result)

	return &Response{
		ID:          result.ID,
		StudentID:   result.StudentID,
		StudentName: result.StudentName,
		BookingDate: result.BookingDate,
		StartTime:   result.StartTime,
		EndTime:     result.EndTime,
		Status:      string(result.Status),
		Notes:       result.Notes,
		Price:       result.Price,
		CreatedAt:   result.CreatedAt,
		UpdatedAt:   result.UpdatedAt,
	}, nil
}

// settings текущие настройки; если строка еще не создана, действуют значения по умолчанию
func (uc *UseCase) settings(ctx context.Context) (domain.BookingSettings, error) {
	stored, err := uc.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, settingsRepo.ErrSettingsNotFound) {
			uc.logger.Info("CreateBooking: using default settings")
			return domain.DefaultBookingSettings(), nil
		}
		uc.logger.Error("CreateBooking: failed to get settings: %v", err)
		return domain.BookingSettings{}, fmt.Errorf("%w: failed to get settings: %v", ErrInternal, err)
	}
	return *stored, nil
}

// studentName имя из профиля; при недоступности сервиса аккаунтов запись не блокируется
func (uc *UseCase) studentName(ctx context.Context, req *Request) string {
	profile, err := uc.accounts.GetProfileWithGracefulDegradation(ctx, req.Principal.ID)
	if err != nil {
		uc.logger.Warn("CreateBooking: profile of student=%s unavailable, using fallback name: %v", req.Principal.ID, err)
		return fallbackStudentName
	}
	if name := strings.TrimSpace(profile.FullName); name != "" {
		return name
	}
	return fallbackStudentName
}

func (uc *UseCase) afterCreate(ctx context.Context, b *domain.Booking) {
	uc.metrics.IncBookingCreated()

	event := domain.ChangeEvent{
		Entity:     domain.EntityBooking,
		Kind:       domain.ChangeInsert,
		ID:         b.ID,
		Status:     string(b.Status),
		Audience:   ptr.Ptr(b.StudentID),
		OccurredAt: uc.timeProvider.Now(),
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("CreateBooking: failed to publish booking id=%d: %v", b.ID, err)
	}

	if err := uc.notifier.Dispatch(ctx, b, domain.NotificationBookingRequested, uc.teacherID); err != nil {
		uc.logger.Warn("CreateBooking: failed to notify teacher about booking id=%d: %v", b.ID, err)
	}
}

package bookings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/booking"
	settingsRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/settings"
	"github.com/m04kA/SMC-TutorBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-TutorBooking/pkg/ptr"
	"github.com/m04kA/SMC-TutorBooking/pkg/sanitize"
)

// Service жизненный цикл бронирований: чтение, смена статусов, автозавершение
type Service struct {
	bookingRepo  BookingRepository
	settingsRepo SettingsRepository
	policy       CancellationPolicy
	notifier     Notifier
	publisher    Publisher
	metrics      Metrics
	teacherID    uuid.UUID
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	settingsRepo SettingsRepository,
	policy CancellationPolicy,
	notifier Notifier,
	publisher Publisher,
	metrics Metrics,
	teacherID uuid.UUID,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		settingsRepo: settingsRepo,
		policy:       policy,
		notifier:     notifier,
		publisher:    publisher,
		metrics:      metrics,
		teacherID:    teacherID,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// transitionInput параметры перехода статуса
type transitionInput struct {
	op          string
	meetingLink *string
	price       *float64
	reason      *string
	expectFrom  *domain.BookingStatus // переход допустим только из этого статуса
}

// GetByID получает бронирование по ID
// Студент видит только свои бронирования, преподаватель - все
func (s *Service) GetByID(ctx context.Context, bookingID int64, principal domain.Principal) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%s", bookingID, principal.ID)

	booking, err := s.load(ctx, "GetByID", bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccess(booking, principal); err != nil {
		s.logger.Warn("GetByID: access denied for user=%s to booking id=%d", principal.ID, bookingID)
		return nil, err
	}

	return models.FromDomainBooking(booking), nil
}

// ListByStudent получает все бронирования студента
func (s *Service) ListByStudent(ctx context.Context, req *models.GetStudentBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListByStudent: fetching bookings for student=%s, status=%v", req.StudentID, req.Status)

	var statusFilter *domain.BookingStatus
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("ListByStudent: invalid status=%s", *req.Status)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		statusFilter = &status
	}

	list, err := s.bookingRepo.GetByStudentID(ctx, req.StudentID, statusFilter)
	if err != nil {
		s.logger.Error("ListByStudent: repository error for student=%s: %v", req.StudentID, err)
		return nil, fmt.Errorf("%w: ListByStudent - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListByStudent: found %d bookings for student=%s", len(list), req.StudentID)
	return models.FromDomainBookingList(list), nil
}

// ListForTeacher список бронирований для кабинета преподавателя
// Перед выборкой прошедшие уроки переводятся в completed
func (s *Service) ListForTeacher(ctx context.Context, req *models.GetTeacherBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListForTeacher: fetching bookings from=%v to=%v status=%v", req.StartDate, req.EndDate, req.Status)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListForTeacher: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		s.logger.Warn("ListForTeacher: end date before start date")
		return nil, fmt.Errorf("%w: end date must not be before start date", ErrInvalidInput)
	}

	// Ошибка автозавершения не мешает показать список
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Warn("ListForTeacher: sweep failed: %v", err)
	}

	list, err := s.bookingRepo.GetWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("ListForTeacher: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListForTeacher - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListForTeacher: found %d bookings", len(list))
	return models.FromDomainBookingList(list), nil
}

// Confirm подтверждает заявку (pending -> confirmed), доступно преподавателю
func (s *Service) Confirm(ctx context.Context, principal domain.Principal, bookingID int64, meetingLink *string, price *float64) (*models.BookingResponse, error) {
	return s.applyTransition(ctx, principal, bookingID, domain.StatusConfirmed, transitionInput{
		op:          "Confirm",
		meetingLink: meetingLink,
		price:       price,
	})
}

// Cancel отменяет бронирование: отказ преподавателя, отзыв заявки или отмена урока
func (s *Service) Cancel(ctx context.Context, principal domain.Principal, bookingID int64, reason *string) (*models.BookingResponse, error) {
	return s.applyTransition(ctx, principal, bookingID, domain.StatusCancelled, transitionInput{
		op:     "Cancel",
		reason: reason,
	})
}

// RevertCompletion ручная отмена уже завершенного урока преподавателем
func (s *Service) RevertCompletion(ctx context.Context, principal domain.Principal, bookingID int64, reason *string) (*models.BookingResponse, error) {
	return s.applyTransition(ctx, principal, bookingID, domain.StatusCancelled, transitionInput{
		op:         "RevertCompletion",
		reason:     reason,
		expectFrom: ptr.Ptr(domain.StatusCompleted),
	})
}

// UpdateStatus общая точка смены статуса, направляет запрос в Confirm/Cancel/RevertCompletion
func (s *Service) UpdateStatus(ctx context.Context, bookingID int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateStatus: booking id=%d to status=%s by user=%s", bookingID, req.Status, req.Principal.ID)

	target, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for booking id=%d", req.Status, bookingID)
		return nil, ErrInvalidStatus
	}

	switch target {
	case domain.StatusConfirmed:
		return s.Confirm(ctx, req.Principal, bookingID, req.MeetingLink, req.Price)
	case domain.StatusCancelled:
		return s.Cancel(ctx, req.Principal, bookingID, req.Reason)
	default:
		return s.applyTransition(ctx, req.Principal, bookingID, target, transitionInput{op: "UpdateStatus"})
	}
}

// Delete удаляет бронирование минуя статусы, доступно только преподавателю
func (s *Service) Delete(ctx context.Context, principal domain.Principal, bookingID int64) error {
	s.logger.Info("Delete: deleting booking id=%d by user=%s", bookingID, principal.ID)

	if !principal.IsTeacher() {
		s.logger.Warn("Delete: user=%s is not the teacher", principal.ID)
		return ErrAccessDenied
	}

	booking, err := s.load(ctx, "Delete", bookingID)
	if err != nil {
		return err
	}

	if err := s.bookingRepo.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("Delete: booking id=%d not found during delete", bookingID)
			return ErrBookingNotFound
		}
		s.logger.Error("Delete: repository error for booking id=%d: %v", bookingID, err)
		return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
	}

	s.publish(context.WithoutCancel(ctx), booking, domain.ChangeDelete)

	s.logger.Info("Delete: successfully deleted booking id=%d", bookingID)
	return nil
}

// Sweep переводит подтвержденные уроки, закончившиеся к текущему моменту, в completed
// Идемпотентна, уведомлений не отправляет
func (s *Service) Sweep(ctx context.Context) (*models.SweepResponse, error) {
	now := s.timeProvider.Now().In(s.policy.Location())

	completed, err := s.bookingRepo.CompleteFinished(ctx, now)
	if err != nil {
		s.logger.Error("Sweep: repository error: %v", err)
		return nil, fmt.Errorf("%w: Sweep - repository error: %v", ErrInternal, err)
	}

	if completed > 0 {
		s.logger.Info("Sweep: completed %d bookings", completed)
		s.metrics.AddSweepCompleted(int(completed))

		// Одно событие на весь пакет: ID строк UPDATE не возвращает
		event := domain.ChangeEvent{
			Entity:     domain.EntityBooking,
			Kind:       domain.ChangeUpdate,
			Status:     string(domain.StatusCompleted),
			OccurredAt: s.timeProvider.Now(),
		}
		if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
			s.logger.Warn("Sweep: failed to publish change event: %v", err)
		}
	}

	return &models.SweepResponse{Completed: completed}, nil
}

// applyTransition проверяет и применяет переход статуса, затем уведомляет участников
func (s *Service) applyTransition(
	ctx context.Context,
	principal domain.Principal,
	bookingID int64,
	target domain.BookingStatus,
	in transitionInput,
) (*models.BookingResponse, error) {
	s.logger.Info("%s: booking id=%d to status=%s by user=%s", in.op, bookingID, target, principal.ID)

	// 1. Валидация входных данных
	change, err := s.buildChange(target, in)
	if err != nil {
		s.logger.Warn("%s: validation failed for booking id=%d: %v", in.op, bookingID, err)
		return nil, err
	}

	// 2. Загружаем бронирование
	booking, err := s.load(ctx, in.op, bookingID)
	if err != nil {
		return nil, err
	}

	// 3. Студент работает только со своими бронированиями
	if err := s.checkAccess(booking, principal); err != nil {
		s.logger.Warn("%s: access denied for user=%s to booking id=%d", in.op, principal.ID, bookingID)
		return nil, err
	}

	if in.expectFrom != nil && booking.Status != *in.expectFrom {
		s.logger.Warn("%s: booking id=%d has status=%s, expected %s", in.op, bookingID, booking.Status, *in.expectFrom)
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
	}

	// 4. Таблица переходов и права инициатора
	transition, err := domain.AuthorizeTransition(booking.Status, target, principal.Actor(), booking.IsOwnedBy(principal.ID))
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			s.logger.Warn("%s: user=%s may not move booking id=%d %s -> %s", in.op, principal.ID, bookingID, booking.Status, target)
			return nil, ErrAccessDenied
		}
		s.logger.Warn("%s: transition %s -> %s not allowed for booking id=%d", in.op, booking.Status, target, bookingID)
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
	}

	// 5. Окно отмены
	if transition.RequiresWindowCheck {
		settings, err := s.settings(ctx, in.op)
		if err != nil {
			return nil, err
		}
		if err := s.policy.ValidateCancellation(booking, s.timeProvider.Now(), settings); err != nil {
			if reason, ok := domain.RejectionReason(err); ok {
				s.metrics.IncBookingRejected(string(reason))
			}
			s.logger.Warn("%s: booking id=%d rejected: %v", in.op, bookingID, err)
			return nil, err
		}
	}

	// 6. Compare-and-set по текущему статусу
	change.From = booking.Status
	updated, err := s.bookingRepo.UpdateStatus(ctx, bookingID, change)
	if err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			s.logger.Warn("%s: booking id=%d disappeared during update", in.op, bookingID)
			return nil, ErrBookingNotFound
		case errors.Is(err, bookingRepo.ErrStatusConflict):
			s.logger.Warn("%s: booking id=%d changed concurrently", in.op, bookingID)
			return nil, fmt.Errorf("%w: booking was modified concurrently", ErrInvalidTransition)
		case errors.Is(err, bookingRepo.ErrSlotNotAvailable):
			s.logger.Warn("%s: slot of booking id=%d is taken", in.op, bookingID)
			return nil, domain.ErrSlotAlreadyTaken
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", in.op, bookingID, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, in.op, err)
	}

	// 7. Побочные эффекты не влияют на результат перехода
	s.afterTransition(context.WithoutCancel(ctx), principal, transition, updated)

	s.logger.Info("%s: booking id=%d moved %s -> %s", in.op, bookingID, transition.From, transition.To)
	return models.FromDomainBooking(updated), nil
}

// buildChange проверяет дополнительные поля перехода
func (s *Service) buildChange(target domain.BookingStatus, in transitionInput) (bookingRepo.StatusChange, error) {
	change := bookingRepo.StatusChange{To: target}

	switch target {
	case domain.StatusConfirmed:
		if in.meetingLink != nil {
			link := strings.TrimSpace(*in.meetingLink)
			if err := validateMeetingLink(link); err != nil {
				return change, err
			}
			if link != "" {
				change.MeetingLink = &link
			}
		}
		if in.price != nil {
			if *in.price < 0 {
				return change, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
			}
			change.Price = in.price
		}
	case domain.StatusCancelled:
		reason := sanitize.OptionalText(in.reason)
		if reason != nil && utf8.RuneCountInString(*reason) > domain.MaxCancellationReasonLength {
			return change, fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
		}
		change.CancellationReason = reason
	}

	return change, nil
}

func (s *Service) afterTransition(ctx context.Context, principal domain.Principal, t domain.Transition, b *domain.Booking) {
	s.metrics.IncTransition(string(t.From), string(t.To))
	s.publish(ctx, b, domain.ChangeUpdate)

	if t.Notification == "" {
		return
	}

	if err := s.notifier.Dispatch(ctx, b, t.Notification, s.counterpart(principal, b)); err != nil {
		s.logger.Warn("afterTransition: failed to notify about booking id=%d: %v", b.ID, err)
	}
}

// counterpart другая сторона бронирования относительно инициатора
func (s *Service) counterpart(principal domain.Principal, b *domain.Booking) uuid.UUID {
	if principal.IsTeacher() {
		return b.StudentID
	}
	return s.teacherID
}

func (s *Service) publish(ctx context.Context, b *domain.Booking, kind domain.ChangeKind) {
	event := domain.ChangeEvent{
		Entity:     domain.EntityBooking,
		Kind:       kind,
		ID:         b.ID,
		Status:     string(b.Status),
		Audience:   ptr.Ptr(b.StudentID),
		OccurredAt: s.timeProvider.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish: failed to publish booking id=%d: %v", b.ID, err)
	}
}

func (s *Service) load(ctx context.Context, op string, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, bookingID, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

// settings текущие настройки; если строка еще не создана, действуют значения по умолчанию
func (s *Service) settings(ctx context.Context, op string) (domain.BookingSettings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, settingsRepo.ErrSettingsNotFound) {
			return domain.DefaultBookingSettings(), nil
		}
		s.logger.Error("%s: failed to load settings: %v", op, err)
		return domain.BookingSettings{}, fmt.Errorf("%w: %s - load settings: %v", ErrInternal, op, err)
	}
	return *settings, nil
}

// checkAccess студент имеет доступ только к своему бронированию, преподаватель ко всем
func (s *Service) checkAccess(b *domain.Booking, principal domain.Principal) error {
	if principal.IsTeacher() || b.IsOwnedBy(principal.ID) {
		return nil
	}
	return ErrAccessDenied
}

func validateMeetingLink(link string) error {
	if link == "" {
		return nil
	}
	if utf8.RuneCountInString(link) > domain.MaxMeetingLinkLength {
		return fmt.Errorf("%w: meeting link exceeds %d characters", ErrInvalidInput, domain.MaxMeetingLinkLength)
	}
	u, err := url.ParseRequestURI(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: meeting link must be an http(s) URL", ErrInvalidInput)
	}
	return nil
}

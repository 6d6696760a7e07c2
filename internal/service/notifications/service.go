package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	notificationRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/notification"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/mailer"
	"github.com/m04kA/SMC-TutorBooking/internal/service/notifications/models"
	"github.com/m04kA/SMC-TutorBooking/pkg/ptr"
)

// Service уведомления участникам бронирования: запись в БД, событие в ленту, письмо
type Service struct {
	repo         NotificationRepository
	accounts     AccountsClient
	publisher    Publisher
	mailer       Mailer
	unread       *unreadCache
	teacherID    uuid.UUID
	teacherEmail string
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса уведомлений
func NewService(
	repo NotificationRepository,
	accounts AccountsClient,
	publisher Publisher,
	mail Mailer,
	teacherID uuid.UUID,
	teacherEmail string,
	logger Logger,
) *Service {
	return &Service{
		repo:         repo,
		accounts:     accounts,
		publisher:    publisher,
		mailer:       mail,
		unread:       newUnreadCache(),
		teacherID:    teacherID,
		teacherEmail: teacherEmail,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Dispatch уведомляет получателя об изменении бронирования
// Письмо уходит в фоне, ошибки ленты изменений только логируются
func (s *Service) Dispatch(ctx context.Context, booking *domain.Booking, kind domain.NotificationKind, recipientID uuid.UUID) error {
	s.logger.Info("Dispatch: kind=%s booking=%d recipient=%s", kind, booking.ID, recipientID)

	title, body := s.render(booking, kind)

	// 1. Сохраняем уведомление
	created, err := s.repo.Create(ctx, &domain.Notification{
		RecipientID: recipientID,
		BookingID:   ptr.Ptr(booking.ID),
		Kind:        kind,
		Title:       title,
		Body:        body,
	})
	if err != nil {
		s.logger.Error("Dispatch: failed to store notification for booking=%d: %v", booking.ID, err)
		return fmt.Errorf("%w: Dispatch - store notification: %v", ErrInternal, err)
	}

	// 2. Счетчик непрочитанных получателя больше не актуален
	s.unread.Invalidate(recipientID)

	// 3. Событие в ленту изменений
	event := domain.ChangeEvent{
		Entity:     domain.EntityNotification,
		Kind:       domain.ChangeInsert,
		ID:         created.ID,
		Audience:   ptr.Ptr(recipientID),
		OccurredAt: s.timeProvider.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Dispatch: failed to publish notification id=%d: %v", created.ID, err)
	}

	// 4. Письмо
	if email := s.emailOf(ctx, recipientID); email != "" {
		s.mailer.SendAsync(mailer.Message{To: email, Subject: title, Text: body})
	}

	return nil
}

// List возвращает уведомления получателя, новые сверху
func (s *Service) List(ctx context.Context, req models.ListRequest) (*models.NotificationListResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = models.DefaultLimit
	}
	if limit > models.MaxLimit {
		s.logger.Warn("List: limit=%d exceeds max for recipient=%s", req.Limit, req.RecipientID)
		return nil, fmt.Errorf("%w: limit must not exceed %d", ErrInvalidInput, models.MaxLimit)
	}

	items, err := s.repo.GetByRecipient(ctx, req.RecipientID, req.UnreadOnly, uint64(limit))
	if err != nil {
		s.logger.Error("List: repository error for recipient=%s: %v", req.RecipientID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	unread, err := s.UnreadCount(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}

	response := &models.NotificationListResponse{
		Notifications: make([]models.NotificationResponse, 0, len(items)),
		UnreadCount:   unread,
	}
	for _, n := range items {
		response.Notifications = append(response.Notifications, models.FromDomainNotification(n))
	}

	return response, nil
}

// UnreadCount количество непрочитанных, из кэша если он заполнен
func (s *Service) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	if count, ok := s.unread.Get(recipientID); ok {
		return count, nil
	}

	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		s.logger.Error("UnreadCount: repository error for recipient=%s: %v", recipientID, err)
		return 0, fmt.Errorf("%w: UnreadCount - repository error: %v", ErrInternal, err)
	}

	s.unread.Set(recipientID, count)
	return count, nil
}

// MarkRead отмечает уведомление прочитанным. Повторная отметка не ошибка
func (s *Service) MarkRead(ctx context.Context, recipientID uuid.UUID, id int64) error {
	s.logger.Info("MarkRead: notification=%d recipient=%s", id, recipientID)

	change := s.unread.Apply(recipientID, -1)

	changed, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		change.Rollback()
		if errors.Is(err, notificationRepo.ErrNotificationNotFound) {
			s.logger.Warn("MarkRead: notification=%d not found for recipient=%s", id, recipientID)
			return ErrNotificationNotFound
		}
		s.logger.Error("MarkRead: repository error for notification=%d: %v", id, err)
		return fmt.Errorf("%w: MarkRead - repository error: %v", ErrInternal, err)
	}

	if !changed {
		// Уже было прочитано, счетчик не менялся
		change.Rollback()
		return nil
	}
	change.Commit()

	event := domain.ChangeEvent{
		Entity:     domain.EntityNotification,
		Kind:       domain.ChangeUpdate,
		ID:         id,
		Audience:   ptr.Ptr(recipientID),
		OccurredAt: s.timeProvider.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("MarkRead: failed to publish notification id=%d: %v", id, err)
	}

	return nil
}

// RunInvalidation сбрасывает счетчики по событиям ленты до закрытия канала или ctx
func (s *Service) RunInvalidation(ctx context.Context, events <-chan domain.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Entity != domain.EntityNotification || event.Audience == nil {
				continue
			}
			s.unread.Invalidate(*event.Audience)
		}
	}
}

func (s *Service) emailOf(ctx context.Context, recipientID uuid.UUID) string {
	if recipientID == s.teacherID {
		return s.teacherEmail
	}

	profile, err := s.accounts.GetProfileWithGracefulDegradation(ctx, recipientID)
	if err != nil {
		s.logger.Warn("Dispatch: no email for recipient=%s: %v", recipientID, err)
		return ""
	}
	return profile.Email
}

func (s *Service) render(b *domain.Booking, kind domain.NotificationKind) (string, string) {
	when := fmt.Sprintf("%s %s-%s", b.BookingDate.Format(dateLayout), b.StartTime, b.EndTime)

	switch kind {
	case domain.NotificationBookingRequested:
		return "Новая заявка на урок",
			fmt.Sprintf("%s записался на урок %s. Подтвердите или отклоните заявку.", studentName(b), when)
	case domain.NotificationBookingConfirmed:
		body := fmt.Sprintf("Урок %s подтвержден.", when)
		if b.MeetingLink != nil {
			body += " Ссылка на встречу: " + *b.MeetingLink
		}
		return "Урок подтвержден", body
	case domain.NotificationBookingCancelled:
		body := fmt.Sprintf("Урок %s отменен.", when)
		if b.CancellationReason != nil && *b.CancellationReason != "" {
			body += " Причина: " + *b.CancellationReason
		}
		return "Урок отменен", body
	default:
		return "Изменение бронирования", fmt.Sprintf("Бронирование %s: статус %s.", when, b.Status)
	}
}

const dateLayout = "02.01.2006"

func studentName(b *domain.Booking) string {
	if b.StudentName == "" {
		return "Студент"
	}
	return b.StudentName
}

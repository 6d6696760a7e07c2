package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	notificationRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/notification"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/accounts"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/mailer"
	"github.com/m04kA/SMC-TutorBooking/internal/service/notifications/models"
	"github.com/m04kA/SMC-TutorBooking/pkg/logger"
	"github.com/m04kA/SMC-TutorBooking/pkg/types"
)

type fakeRepo struct {
	mu      sync.Mutex
	items   []*domain.Notification
	nextID  int64
	counts  int
	markErr error
}

func (r *fakeRepo) Create(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *n
	stored.ID = r.nextID
	r.items = append(r.items, &stored)
	return &stored, nil
}

func (r *fakeRepo) GetByRecipient(_ context.Context, recipientID uuid.UUID, unreadOnly bool, _ uint64) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, n := range r.items {
		if n.RecipientID == recipientID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRepo) CountUnread(_ context.Context, recipientID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts++
	n := 0
	for _, item := range r.items {
		if item.RecipientID == recipientID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) MarkRead(_ context.Context, id int64, recipientID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return false, r.markErr
	}
	for _, n := range r.items {
		if n.ID == id && n.RecipientID == recipientID {
			if n.IsRead {
				return false, nil
			}
			n.IsRead = true
			return true, nil
		}
	}
	return false, notificationRepo.ErrNotificationNotFound
}

type fakeAccounts struct {
	profiles map[uuid.UUID]*accounts.Profile
}

func (a *fakeAccounts) GetProfileWithGracefulDegradation(_ context.Context, id uuid.UUID) (*accounts.Profile, error) {
	if p, ok := a.profiles[id]; ok {
		return p, nil
	}
	return nil, accounts.ErrServiceDegraded
}

type fakePublisher struct {
	events []domain.ChangeEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event domain.ChangeEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type fakeMailer struct {
	sent []mailer.Message
}

func (m *fakeMailer) SendAsync(msg mailer.Message) {
	m.sent = append(m.sent, msg)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	publisher *fakePublisher
	mail      *fakeMailer
	teacherID uuid.UUID
	studentID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:      &fakeRepo{},
		publisher: &fakePublisher{},
		mail:      &fakeMailer{},
		teacherID: uuid.New(),
		studentID: uuid.New(),
	}
	acc := &fakeAccounts{profiles: map[uuid.UUID]*accounts.Profile{
		f.studentID: {ID: f.studentID, FullName: "Anna", Email: "anna@example.com"},
	}}

	f.svc = NewService(f.repo, acc, f.publisher, f.mail, f.teacherID, "teacher@example.com", logger.NewNop())
	f.svc.timeProvider = fixedTime{now: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	return f
}

func testBooking(studentID uuid.UUID) *domain.Booking {
	return &domain.Booking{
		ID:          7,
		StudentID:   studentID,
		StudentName: "Anna",
		BookingDate: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		StartTime:   types.MustTimeString("10:00"),
		EndTime:     types.MustTimeString("11:00"),
		Status:      domain.StatusPending,
	}
}

func TestDispatch_StoresPublishesAndMailsTeacher(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Dispatch(context.Background(), testBooking(f.studentID), domain.NotificationBookingRequested, f.teacherID)
	require.NoError(t, err)

	require.Len(t, f.repo.items, 1)
	stored := f.repo.items[0]
	assert.Equal(t, f.teacherID, stored.RecipientID)
	assert.Equal(t, domain.NotificationBookingRequested, stored.Kind)
	assert.Contains(t, stored.Body, "Anna")
	assert.Contains(t, stored.Body, "19.10.2026 10:00-11:00")

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EntityNotification, f.publisher.events[0].Entity)
	assert.Equal(t, f.teacherID, *f.publisher.events[0].Audience)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "teacher@example.com", f.mail.sent[0].To)
}

func TestDispatch_StudentEmailFromAccounts(t *testing.T) {
	f := newFixture(t)
	b := testBooking(f.studentID)
	b.Status = domain.StatusConfirmed
	b.MeetingLink = strPtr("https://meet.example.com/abc")

	require.NoError(t, f.svc.Dispatch(context.Background(), b, domain.NotificationBookingConfirmed, f.studentID))

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "anna@example.com", f.mail.sent[0].To)
	assert.Contains(t, f.mail.sent[0].Text, "https://meet.example.com/abc")
}

func TestDispatch_AccountsDownStillStoresNotification(t *testing.T) {
	f := newFixture(t)
	unknown := uuid.New()

	require.NoError(t, f.svc.Dispatch(context.Background(), testBooking(unknown), domain.NotificationBookingCancelled, unknown))

	assert.Len(t, f.repo.items, 1)
	assert.Empty(t, f.mail.sent)
}

func TestDispatch_PublishFailureIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("redis down")

	err := f.svc.Dispatch(context.Background(), testBooking(f.studentID), domain.NotificationBookingCancelled, f.studentID)
	assert.NoError(t, err)
	assert.Len(t, f.repo.items, 1)
}

func TestList_UnreadCountIsCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Dispatch(ctx, testBooking(f.studentID), domain.NotificationBookingConfirmed, f.studentID))
	require.NoError(t, f.svc.Dispatch(ctx, testBooking(f.studentID), domain.NotificationBookingCancelled, f.studentID))

	first, err := f.svc.List(ctx, models.ListRequest{RecipientID: f.studentID})
	require.NoError(t, err)
	assert.Len(t, first.Notifications, 2)
	assert.Equal(t, 2, first.UnreadCount)

	_, err = f.svc.List(ctx, models.ListRequest{RecipientID: f.studentID})
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.counts)
}

func TestList_LimitTooLarge(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(context.Background(), models.ListRequest{RecipientID: f.studentID, Limit: models.MaxLimit + 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMarkRead_DecrementsCachedCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Dispatch(ctx, testBooking(f.studentID), domain.NotificationBookingConfirmed, f.studentID))

	count, err := f.svc.UnreadCount(ctx, f.studentID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, f.svc.MarkRead(ctx, f.studentID, 1))

	count, err = f.svc.UnreadCount(ctx, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 1, f.repo.counts)
}

func TestMarkRead_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Dispatch(ctx, testBooking(f.studentID), domain.NotificationBookingConfirmed, f.studentID))
	_, err := f.svc.UnreadCount(ctx, f.studentID)
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkRead(ctx, f.studentID, 1))
	require.NoError(t, f.svc.MarkRead(ctx, f.studentID, 1))

	count, err := f.svc.UnreadCount(ctx, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMarkRead_ForeignNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Dispatch(ctx, testBooking(f.studentID), domain.NotificationBookingConfirmed, f.studentID))

	err := f.svc.MarkRead(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestMarkRead_RepositoryErrorRollsBackCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Dispatch(ctx, testBooking(f.studentID), domain.NotificationBookingConfirmed, f.studentID))
	_, err := f.svc.UnreadCount(ctx, f.studentID)
	require.NoError(t, err)

	f.repo.markErr = errors.New("connection reset")
	err = f.svc.MarkRead(ctx, f.studentID, 1)
	assert.ErrorIs(t, err, ErrInternal)

	count, ok := f.svc.unread.Get(f.studentID)
	require.True(t, ok)
	assert.Equal(t, 1, count)
}

func TestRunInvalidation(t *testing.T) {
	f := newFixture(t)
	f.svc.unread.Set(f.studentID, 5)

	events := make(chan domain.ChangeEvent, 2)
	events <- domain.ChangeEvent{Entity: domain.EntityBooking, ID: 1, Audience: &f.studentID}
	events <- domain.ChangeEvent{Entity: domain.EntityNotification, Kind: domain.ChangeInsert, ID: 2, Audience: &f.studentID}
	close(events)

	f.svc.RunInvalidation(context.Background(), events)

	_, ok := f.svc.unread.Get(f.studentID)
	assert.False(t, ok)
}

func strPtr(s string) *string { return &s }

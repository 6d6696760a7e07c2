package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/booking"
	settingsRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/settings"
	"github.com/m04kA/SMC-TutorBooking/internal/resolver"
	"github.com/m04kA/SMC-TutorBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-TutorBooking/pkg/logger"
	"github.com/m04kA/SMC-TutorBooking/pkg/types"
)

type fakeBookingRepo struct {
	items        map[int64]*domain.Booking
	sweepBefore  time.Time
	conflictOnce bool
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.items[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) GetByStudentID(_ context.Context, studentID uuid.UUID, status *domain.BookingStatus) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range r.items {
		if b.StudentID == studentID && (status == nil || b.Status == *status) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) GetWithFilter(_ context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range r.items {
		if filter.IncludeInactive || b.IsActive() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id int64, change bookingRepo.StatusChange) (*domain.Booking, error) {
	b, ok := r.items[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	if r.conflictOnce {
		r.conflictOnce = false
		return nil, bookingRepo.ErrStatusConflict
	}
	if b.Status != change.From {
		return nil, bookingRepo.ErrStatusConflict
	}
	b.Status = change.To
	if change.MeetingLink != nil {
		b.MeetingLink = change.MeetingLink
	}
	if change.Price != nil {
		b.Price = change.Price
	}
	if change.To == domain.StatusCancelled {
		b.CancellationReason = change.CancellationReason
	}
	cp := *b
	return &cp, nil
}

// CompleteFinished повторяет условный UPDATE: только confirmed, закончившиеся до before
func (r *fakeBookingRepo) CompleteFinished(_ context.Context, before time.Time) (int64, error) {
	r.sweepBefore = before
	var n int64
	for _, b := range r.items {
		if b.Status == domain.StatusConfirmed && b.EndsAt(before.Location()).Before(before) {
			b.Status = domain.StatusCompleted
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) statuses() map[int64]domain.BookingStatus {
	out := make(map[int64]domain.BookingStatus, len(r.items))
	for id, b := range r.items {
		out[id] = b.Status
	}
	return out
}

func (r *fakeBookingRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return bookingRepo.ErrBookingNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeSettingsRepo struct {
	settings *domain.BookingSettings
	err      error
}

func (r *fakeSettingsRepo) Get(_ context.Context) (*domain.BookingSettings, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.settings == nil {
		return nil, settingsRepo.ErrSettingsNotFound
	}
	return r.settings, nil
}

type dispatched struct {
	kind      domain.NotificationKind
	recipient uuid.UUID
}

type fakeNotifier struct {
	sent []dispatched
	err  error
}

func (n *fakeNotifier) Dispatch(_ context.Context, _ *domain.Booking, kind domain.NotificationKind, recipientID uuid.UUID) error {
	n.sent = append(n.sent, dispatched{kind: kind, recipient: recipientID})
	return n.err
}

type fakePublisher struct {
	events []domain.ChangeEvent
}

func (p *fakePublisher) Publish(_ context.Context, event domain.ChangeEvent) error {
	p.events = append(p.events, event)
	return nil
}

type fakeMetrics struct {
	transitions []string
	rejections  []string
	swept       int
}

func (m *fakeMetrics) IncTransition(from, to string) {
	m.transitions = append(m.transitions, from+"->"+to)
}

func (m *fakeMetrics) IncBookingRejected(reason string) {
	m.rejections = append(m.rejections, reason)
}

func (m *fakeMetrics) AddSweepCompleted(n int) {
	m.swept += n
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fixture struct {
	svc       *Service
	repo      *fakeBookingRepo
	settings  *fakeSettingsRepo
	notifier  *fakeNotifier
	publisher *fakePublisher
	metrics   *fakeMetrics
	teacher   domain.Principal
	student   domain.Principal
}

// 2026-10-15 09:00 UTC, урок 2026-10-19 10:00-11:00 (за 4 дня)
var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:      &fakeBookingRepo{items: map[int64]*domain.Booking{}},
		settings:  &fakeSettingsRepo{},
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		metrics:   &fakeMetrics{},
		teacher:   domain.Principal{ID: uuid.New(), Role: domain.RoleTeacher},
		student:   domain.Principal{ID: uuid.New(), Role: domain.RoleStudent},
	}

	f.svc = NewService(f.repo, f.settings, resolver.New(time.UTC), f.notifier, f.publisher, f.metrics, f.teacher.ID, logger.NewNop())
	f.svc.timeProvider = fixedTime{now: testNow}
	return f
}

func (f *fixture) addBooking(id int64, status domain.BookingStatus, date time.Time) *domain.Booking {
	b := &domain.Booking{
		ID:          id,
		StudentID:   f.student.ID,
		StudentName: "Anna",
		BookingDate: date,
		StartTime:   types.MustTimeString("10:00"),
		EndTime:     types.MustTimeString("11:00"),
		Status:      status,
	}
	f.repo.items[id] = b
	return b
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestConfirm_TeacherConfirmsPending(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusPending, day(2026, 10, 19))
	link := "https://meet.example.com/xyz"
	price := 1500.0

	resp, err := f.svc.Confirm(context.Background(), f.teacher, 1, &link, &price)
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	assert.Equal(t, link, *resp.MeetingLink)
	assert.Equal(t, price, *resp.Price)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, domain.NotificationBookingConfirmed, f.notifier.sent[0].kind)
	assert.Equal(t, f.student.ID, f.notifier.sent[0].recipient)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EntityBooking, f.publisher.events[0].Entity)
	assert.Equal(t, f.student.ID, *f.publisher.events[0].Audience)
	assert.Equal(t, []string{"pending->confirmed"}, f.metrics.transitions)
}

func TestConfirm_StudentCannotConfirm(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusPending, day(2026, 10, 19))

	_, err := f.svc.Confirm(context.Background(), f.student, 1, nil, nil)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, domain.StatusPending, f.repo.items[1].Status)
	assert.Empty(t, f.notifier.sent)
}

func TestConfirm_InvalidMeetingLink(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusPending, day(2026, 10, 19))
	link := "not a url"

	_, err := f.svc.Confirm(context.Background(), f.teacher, 1, &link, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfirm_AlreadyCancelled(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusCancelled, day(2026, 10, 19))

	_, err := f.svc.Confirm(context.Background(), f.teacher, 1, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel_StudentWithinWindow(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 19))
	reason := "  <b>заболел</b> "

	resp, err := f.svc.Cancel(context.Background(), f.student, 1, &reason)
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.Equal(t, "заболел", *resp.CancellationReason)

	// Студент отменил - уведомляем преподавателя
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.teacher.ID, f.notifier.sent[0].recipient)
}

func TestCancel_StudentOutsideWindow(t *testing.T) {
	f := newFixture(t)
	// Урок 15.10 в 10:00, сейчас 09:00: до начала час при окне 12 часов
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 15))

	_, err := f.svc.Cancel(context.Background(), f.student, 1, nil)
	assert.ErrorIs(t, err, domain.ErrCancellationWindowExpired)
	assert.ErrorIs(t, err, domain.ErrRejected)
	assert.Equal(t, domain.StatusConfirmed, f.repo.items[1].Status)
	assert.Equal(t, []string{string(domain.ReasonCancellationWindowExpired)}, f.metrics.rejections)
}

func TestCancel_WindowUsesStoredSettings(t *testing.T) {
	f := newFixture(t)
	f.settings.settings = &domain.BookingSettings{MinAdvanceHours: 0, MaxAdvanceDays: 0, CancelLimitHours: 0}
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 15))

	_, err := f.svc.Cancel(context.Background(), f.student, 1, nil)
	assert.NoError(t, err)
}

func TestCancel_SettingsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.settings.err = errors.New("connection refused")
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 19))

	_, err := f.svc.Cancel(context.Background(), f.student, 1, nil)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestCancel_TeacherRejectsPendingIgnoringWindow(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusPending, day(2026, 10, 15))

	_, err := f.svc.Cancel(context.Background(), f.teacher, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, f.repo.items[1].Status)
	assert.Equal(t, f.student.ID, f.notifier.sent[0].recipient)
}

func TestCancel_OtherStudentDenied(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 19))
	stranger := domain.Principal{ID: uuid.New(), Role: domain.RoleStudent}

	_, err := f.svc.Cancel(context.Background(), stranger, 1, nil)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestCancel_ConcurrentChange(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 19))
	f.repo.conflictOnce = true

	_, err := f.svc.Cancel(context.Background(), f.teacher, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, f.publisher.events)
}

func TestCancel_NotifierFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("db down")
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 19))

	_, err := f.svc.Cancel(context.Background(), f.teacher, 1, nil)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, f.repo.items[1].Status)
}

func TestCancel_TerminalStatus(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusCancelled, day(2026, 10, 19))

	_, err := f.svc.Cancel(context.Background(), f.teacher, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRevertCompletion(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusCompleted, day(2026, 10, 1))
	f.addBooking(2, domain.StatusConfirmed, day(2026, 10, 19))

	_, err := f.svc.RevertCompletion(context.Background(), f.teacher, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, f.repo.items[1].Status)

	_, err = f.svc.RevertCompletion(context.Background(), f.teacher, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	f.addBooking(3, domain.StatusCompleted, day(2026, 10, 1))
	_, err = f.svc.RevertCompletion(context.Background(), f.student, 3, nil)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestUpdateStatus_Routing(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusPending, day(2026, 10, 19))

	_, err := f.svc.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{Principal: f.teacher, Status: "unknown"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{Principal: f.teacher, Status: "completed"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	resp, err := f.svc.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{Principal: f.teacher, Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)

	_, err = f.svc.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{Principal: f.teacher, Status: "completed"})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetByID_Access(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusPending, day(2026, 10, 19))

	_, err := f.svc.GetByID(context.Background(), 1, f.student)
	assert.NoError(t, err)
	_, err = f.svc.GetByID(context.Background(), 1, f.teacher)
	assert.NoError(t, err)
	_, err = f.svc.GetByID(context.Background(), 1, domain.Principal{ID: uuid.New(), Role: domain.RoleStudent})
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = f.svc.GetByID(context.Background(), 42, f.teacher)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListByStudent_InvalidStatus(t *testing.T) {
	f := newFixture(t)
	bad := "done"

	_, err := f.svc.ListByStudent(context.Background(), &models.GetStudentBookingsRequest{StudentID: f.student.ID, Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListForTeacher_RunsSweepFirst(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 19))
	for id := int64(2); id <= 4; id++ {
		f.addBooking(id, domain.StatusConfirmed, day(2026, 10, 14))
	}

	resp, err := f.svc.ListForTeacher(context.Background(), &models.GetTeacherBookingsRequest{})
	require.NoError(t, err)

	assert.Len(t, resp.Bookings, 1)
	assert.Equal(t, testNow, f.repo.sweepBefore)
	assert.Equal(t, domain.StatusCompleted, f.repo.items[2].Status)
	assert.Equal(t, 3, f.metrics.swept)
	require.Len(t, f.publisher.events, 1)
	assert.Nil(t, f.publisher.events[0].Audience)
}

func TestListForTeacher_InvalidRange(t *testing.T) {
	f := newFixture(t)
	from := day(2026, 10, 20)
	to := day(2026, 10, 19)

	_, err := f.svc.ListForTeacher(context.Background(), &models.GetTeacherBookingsRequest{StartDate: &from, EndDate: &to})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSweep_NothingToComplete(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, resp.Completed)
	assert.Empty(t, f.publisher.events)
}

func TestSweep_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 14)) // закончился вчера
	f.addBooking(2, domain.StatusConfirmed, day(2026, 10, 19)) // еще впереди
	f.addBooking(3, domain.StatusPending, day(2026, 10, 14))   // не подтвержден
	f.addBooking(4, domain.StatusCancelled, day(2026, 10, 14)) // отменен
	// 2026-10-15 08:00-09:00 закончился ровно к testNow: еще не "до now"
	sameDay := f.addBooking(5, domain.StatusConfirmed, day(2026, 10, 15))
	sameDay.StartTime = types.MustTimeString("08:00")
	sameDay.EndTime = types.MustTimeString("09:00")

	first, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Completed)
	afterFirst := f.repo.statuses()

	second, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Completed)

	assert.Equal(t, afterFirst, f.repo.statuses())
	assert.Equal(t, map[int64]domain.BookingStatus{
		1: domain.StatusCompleted,
		2: domain.StatusConfirmed,
		3: domain.StatusPending,
		4: domain.StatusCancelled,
		5: domain.StatusConfirmed,
	}, afterFirst)

	// Событие только за первый проход
	assert.Len(t, f.publisher.events, 1)
	assert.Equal(t, 1, f.metrics.swept)
}

func TestRevertCompletion_SweepDoesNotResurrect(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 14))

	_, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, f.repo.items[1].Status)

	_, err = f.svc.RevertCompletion(context.Background(), f.teacher, 1, nil)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, f.repo.items[1].Status)

	resp, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, resp.Completed)
	assert.Equal(t, domain.StatusCancelled, f.repo.items[1].Status)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.addBooking(1, domain.StatusConfirmed, day(2026, 10, 19))

	assert.ErrorIs(t, f.svc.Delete(context.Background(), f.student, 1), ErrAccessDenied)
	require.NoError(t, f.svc.Delete(context.Background(), f.teacher, 1))
	assert.ErrorIs(t, f.svc.Delete(context.Background(), f.teacher, 1), ErrBookingNotFound)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.ChangeDelete, f.publisher.events[0].Kind)
}

package create_booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/booking"
	settingsRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/settings"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/accounts"
	"github.com/m04kA/SMC-TutorBooking/internal/resolver"
	"github.com/m04kA/SMC-TutorBooking/pkg/logger"
	"github.com/m04kA/SMC-TutorBooking/pkg/ptr"
	"github.com/m04kA/SMC-TutorBooking/pkg/txmanager"
	"github.com/m04kA/SMC-TutorBooking/pkg/types"
)

type fakeBookings struct {
	mu        sync.Mutex
	active    []*domain.Booking
	createErr error
	created   []*domain.Booking
}

// Create повторяет частичный уникальный индекс: одна активная бронь на дату и начало слота
func (f *fakeBookings) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, c := range f.created {
		if c.BookingDate.Equal(b.BookingDate) && c.StartTime == b.StartTime && c.IsActive() {
			return nil, bookingRepo.ErrSlotNotAvailable
		}
	}
	b.ID = int64(len(f.created) + 1)
	f.created = append(f.created, b)
	return b, nil
}

func (f *fakeBookings) GetActiveByDate(_ context.Context, _ time.Time) ([]*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, nil
}

type fakeSettings struct {
	settings *domain.BookingSettings
}

func (f *fakeSettings) Get(_ context.Context) (*domain.BookingSettings, error) {
	if f.settings == nil {
		return nil, settingsRepo.ErrSettingsNotFound
	}
	return f.settings, nil
}

type fakeAvailability struct {
	days    []domain.WeeklyAvailability
	blocked []domain.BlockedRange
}

func (f *fakeAvailability) GetWeeklyDays(_ context.Context) ([]domain.WeeklyAvailability, error) {
	return f.days, nil
}

func (f *fakeAvailability) GetBlockedRanges(_ context.Context, _ *time.Time) ([]domain.BlockedRange, error) {
	return f.blocked, nil
}

type fakeAccounts struct {
	profile *accounts.Profile
	err     error
}

func (f *fakeAccounts) GetProfileWithGracefulDegradation(_ context.Context, _ uuid.UUID) (*accounts.Profile, error) {
	return f.profile, f.err
}

type dispatched struct {
	kind      domain.NotificationKind
	recipient uuid.UUID
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []dispatched
}

func (f *fakeNotifier) Dispatch(_ context.Context, _ *domain.Booking, kind domain.NotificationKind, recipientID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, dispatched{kind: kind, recipient: recipientID})
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (f *fakePublisher) Publish(_ context.Context, event domain.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	created  int
	rejected []string
}

func (f *fakeMetrics) IncBookingCreated() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
}

func (f *fakeMetrics) IncBookingRejected(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, reason)
}

type fakeTx struct {
	mu        sync.Mutex
	calls     int
	commitErr error
}

func (f *fakeTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := fn(ctx); err != nil {
		return err
	}
	return f.commitErr
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

var (
	teacherID = uuid.New()
	student   = domain.Principal{ID: uuid.New(), Role: domain.RoleStudent}
	// Понедельник
	monday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	now    = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	bookings  *fakeBookings
	settings  *fakeSettings
	avail     *fakeAvailability
	accounts  *fakeAccounts
	notifier  *fakeNotifier
	publisher *fakePublisher
	metrics   *fakeMetrics
	tx        *fakeTx
	uc        *UseCase
}

func newFixture() *fixture {
	f := &fixture{
		bookings: &fakeBookings{},
		settings: &fakeSettings{},
		avail: &fakeAvailability{days: []domain.WeeklyAvailability{{
			DayOfWeek:   int(time.Monday),
			IsAvailable: true,
			Slots: []domain.TimeRange{
				{Start: types.MustTimeString("10:00"), End: types.MustTimeString("11:00")},
				{Start: types.MustTimeString("12:00"), End: types.MustTimeString("13:00")},
			},
		}}},
		accounts:  &fakeAccounts{profile: &accounts.Profile{FullName: "Анна Петрова"}},
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		metrics:   &fakeMetrics{},
		tx:        &fakeTx{},
	}
	f.uc = NewUseCase(Deps{
		BookingRepo:      f.bookings,
		SettingsRepo:     f.settings,
		AvailabilityRepo: f.avail,
		Validator:        resolver.New(time.UTC),
		Accounts:         f.accounts,
		Notifier:         f.notifier,
		Publisher:        f.publisher,
		Metrics:          f.metrics,
		TxManager:        f.tx,
	}, teacherID, logger.NewNop())
	f.uc.timeProvider = fixedTime{now: now}
	return f
}

func request(start, end string) *Request {
	return &Request{
		Principal: student,
		Date:      monday,
		StartTime: types.MustTimeString(start),
		EndTime:   types.MustTimeString(end),
	}
}

func TestExecute_Success(t *testing.T) {
	f := newFixture()
	f.settings.settings = &domain.BookingSettings{
		MinAdvanceHours: 2, MaxAdvanceDays: 30, CancelLimitHours: 12, LessonPrice: ptr.Ptr(1500.0),
	}
	req := request("10:00", "11:00")
	req.Notes = ptr.Ptr("  <b>Хочу</b> разобрать задачи  ")

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Equal(t, "Анна Петрова", resp.StudentName)
	assert.Equal(t, student.ID, resp.StudentID)
	require.NotNil(t, resp.Price)
	assert.Equal(t, 1500.0, *resp.Price)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, "Хочу разобрать задачи", *resp.Notes)
	assert.Equal(t, 1, f.tx.calls)

	// Уведомление преподавателю и событие в ленте
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, dispatched{kind: domain.NotificationBookingRequested, recipient: teacherID}, f.notifier.sent[0])
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.ChangeInsert, f.publisher.events[0].Kind)
	require.NotNil(t, f.publisher.events[0].Audience)
	assert.Equal(t, student.ID, *f.publisher.events[0].Audience)
	assert.Equal(t, 1, f.metrics.created)
}

func TestExecute_FallbackStudentName(t *testing.T) {
	f := newFixture()
	f.accounts.profile = nil
	f.accounts.err = accounts.ErrServiceDegraded

	resp, err := f.uc.Execute(context.Background(), request("10:00", "11:00"))
	require.NoError(t, err)
	assert.Equal(t, fallbackStudentName, resp.StudentName)
	assert.Nil(t, resp.Price)
}

func TestExecute_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		req     *Request
		wantErr error
		reason  domain.Reason
	}{
		{
			name: "slot taken",
			setup: func(f *fixture) {
				f.bookings.active = []*domain.Booking{{
					ID: 9, BookingDate: monday, Status: domain.StatusConfirmed,
					StartTime: types.MustTimeString("10:00"), EndTime: types.MustTimeString("11:00"),
				}}
			},
			req:     request("10:00", "11:00"),
			wantErr: domain.ErrSlotAlreadyTaken,
			reason:  domain.ReasonSlotAlreadyTaken,
		},
		{
			name:    "unique index fired",
			setup:   func(f *fixture) { f.bookings.createErr = bookingRepo.ErrSlotNotAvailable },
			req:     request("10:00", "11:00"),
			wantErr: domain.ErrSlotAlreadyTaken,
			reason:  domain.ReasonSlotAlreadyTaken,
		},
		{
			name:    "serialization failure",
			setup:   func(f *fixture) { f.tx.commitErr = txmanager.ErrSerializationFailure },
			req:     request("10:00", "11:00"),
			wantErr: domain.ErrSlotAlreadyTaken,
			reason:  domain.ReasonSlotAlreadyTaken,
		},
		{
			name:    "slot not in template",
			req:     request("11:00", "12:00"),
			wantErr: domain.ErrSlotNotOffered,
			reason:  domain.ReasonSlotNotOffered,
		},
		{
			name: "date blocked",
			setup: func(f *fixture) {
				f.avail.blocked = []domain.BlockedRange{{ID: 1, StartDate: monday, EndDate: monday}}
			},
			req:     request("10:00", "11:00"),
			wantErr: domain.ErrDateBlocked,
			reason:  domain.ReasonDateBlocked,
		},
		{
			name: "too soon",
			setup: func(f *fixture) {
				f.uc.timeProvider = fixedTime{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
			},
			req:     request("10:00", "11:00"),
			wantErr: domain.ErrSlotTooSoon,
			reason:  domain.ReasonSlotTooSoon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.uc.Execute(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrRejected)
			assert.Equal(t, []string{string(tt.reason)}, f.metrics.rejected)
			assert.Empty(t, f.notifier.sent)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestExecute_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{
			name:    "teacher cannot book",
			req:     &Request{Principal: domain.Principal{ID: teacherID, Role: domain.RoleTeacher}, Date: monday, StartTime: types.MustTimeString("10:00"), EndTime: types.MustTimeString("11:00")},
			wantErr: ErrAccessDenied,
		},
		{
			name:    "missing date",
			req:     &Request{Principal: student, StartTime: types.MustTimeString("10:00"), EndTime: types.MustTimeString("11:00")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "end before start",
			req:     request("11:00", "10:00"),
			wantErr: ErrInvalidInput,
		},
		{
			name: "notes too long",
			req: func() *Request {
				r := request("10:00", "11:00")
				r.Notes = ptr.Ptr(strings.Repeat("я", domain.MaxNotesLength+1))
				return r
			}(),
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.tx.calls)
			assert.Empty(t, f.metrics.rejected)
		})
	}
}

func TestExecute_InternalError(t *testing.T) {
	f := newFixture()
	f.bookings.createErr = errors.New("connection refused")

	_, err := f.uc.Execute(context.Background(), request("10:00", "11:00"))
	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, f.metrics.rejected)
}

func TestExecute_ConcurrentSameSlot(t *testing.T) {
	f := newFixture()
	// Обе заявки проходят предварительную проверку, гонку решает вставка
	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			req := request("10:00", "11:00")
			req.Principal = domain.Principal{ID: uuid.New(), Role: domain.RoleStudent}
			_, errs[i] = f.uc.Execute(context.Background(), req)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrSlotAlreadyTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, taken)
	assert.Len(t, f.bookings.created, 1)
	assert.Equal(t, 1, f.metrics.created)
	assert.Equal(t, []string{string(domain.ReasonSlotAlreadyTaken)}, f.metrics.rejected)
	assert.Len(t, f.publisher.events, 1)
}

package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	availabilityRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/availability"
	"github.com/m04kA/SMC-TutorBooking/internal/service/availability/models"
	"github.com/m04kA/SMC-TutorBooking/pkg/logger"
	"github.com/m04kA/SMC-TutorBooking/pkg/types"
)

type fakeRepo struct {
	days    map[int]domain.WeeklyAvailability
	blocked []domain.BlockedRange
	nextID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{days: map[int]domain.WeeklyAvailability{}}
}

func (r *fakeRepo) GetWeeklyDays(_ context.Context) ([]domain.WeeklyAvailability, error) {
	out := make([]domain.WeeklyAvailability, 0, len(r.days))
	for _, d := range r.days {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeRepo) ReplaceDay(_ context.Context, day domain.WeeklyAvailability) (*domain.WeeklyAvailability, error) {
	day.Slots = day.SortedSlots()
	r.days[day.DayOfWeek] = day
	return &day, nil
}

func (r *fakeRepo) GetBlockedRanges(_ context.Context, _ *time.Time) ([]domain.BlockedRange, error) {
	return r.blocked, nil
}

func (r *fakeRepo) CreateBlockedRange(_ context.Context, b *domain.BlockedRange) (*domain.BlockedRange, error) {
	r.nextID++
	b.ID = r.nextID
	r.blocked = append(r.blocked, *b)
	return b, nil
}

func (r *fakeRepo) DeleteBlockedRange(_ context.Context, id int64) error {
	for i, b := range r.blocked {
		if b.ID == id {
			r.blocked = append(r.blocked[:i], r.blocked[i+1:]...)
			return nil
		}
	}
	return availabilityRepo.ErrBlockedRangeNotFound
}

type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

var (
	teacher = domain.Principal{ID: uuid.New(), Role: domain.RoleTeacher}
	student = domain.Principal{ID: uuid.New(), Role: domain.RoleStudent}
)

func TestGetWeeklyTemplate_AlwaysSevenDays(t *testing.T) {
	repo := newFakeRepo()
	repo.days[1] = domain.WeeklyAvailability{
		DayOfWeek:   1,
		IsAvailable: true,
		Slots:       []domain.TimeRange{{Start: types.MustTimeString("10:00"), End: types.MustTimeString("11:00")}},
	}
	svc := NewService(repo, &fakeTxManager{}, logger.NewNop())

	resp, err := svc.GetWeeklyTemplate(context.Background())
	require.NoError(t, err)

	require.Len(t, resp.Days, domain.DaysInWeek)
	for i, d := range resp.Days {
		assert.Equal(t, i, d.DayOfWeek)
		if i == 1 {
			assert.True(t, d.IsAvailable)
			assert.Equal(t, []models.SlotResponse{{Start: "10:00", End: "11:00"}}, d.Slots)
			continue
		}
		assert.False(t, d.IsAvailable)
		assert.NotNil(t, d.Slots)
		assert.Empty(t, d.Slots)
	}
}

func TestSetDayAvailability_StoresSortedSlotsInTransaction(t *testing.T) {
	repo := newFakeRepo()
	tx := &fakeTxManager{}
	svc := NewService(repo, tx, logger.NewNop())

	resp, err := svc.SetDayAvailability(context.Background(), &models.SetDayRequest{
		Principal:   teacher,
		DayOfWeek:   3,
		IsAvailable: true,
		Slots: []models.SlotInput{
			{Start: "14:00", End: "15:00"},
			{Start: "09:00", End: "10:30"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, []models.SlotResponse{{Start: "09:00", End: "10:30"}, {Start: "14:00", End: "15:00"}}, resp.Slots)
}

func TestSetDayAvailability_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  models.SetDayRequest
	}{
		{"day out of range", models.SetDayRequest{DayOfWeek: 7, IsAvailable: true}},
		{"negative day", models.SetDayRequest{DayOfWeek: -1}},
		{"start equals end", models.SetDayRequest{DayOfWeek: 1, IsAvailable: true, Slots: []models.SlotInput{{Start: "10:00", End: "10:00"}}}},
		{"overlap", models.SetDayRequest{DayOfWeek: 1, IsAvailable: true, Slots: []models.SlotInput{
			{Start: "10:00", End: "11:00"}, {Start: "10:30", End: "11:30"},
		}}},
		{"slots on unavailable day", models.SetDayRequest{DayOfWeek: 1, Slots: []models.SlotInput{{Start: "10:00", End: "11:00"}}}},
		{"bad time", models.SetDayRequest{DayOfWeek: 1, IsAvailable: true, Slots: []models.SlotInput{{Start: "25:00", End: "26:00"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc := NewService(repo, &fakeTxManager{}, logger.NewNop())
			req := tt.req
			req.Principal = teacher

			_, err := svc.SetDayAvailability(context.Background(), &req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, repo.days)
		})
	}
}

func TestSetDayAvailability_AdjacentSlotsAllowed(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeTxManager{}, logger.NewNop())

	_, err := svc.SetDayAvailability(context.Background(), &models.SetDayRequest{
		Principal:   teacher,
		DayOfWeek:   2,
		IsAvailable: true,
		Slots:       []models.SlotInput{{Start: "10:00", End: "11:00"}, {Start: "11:00", End: "12:00"}},
	})
	assert.NoError(t, err)
}

func TestSetDayAvailability_StudentDenied(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeTxManager{}, logger.NewNop())

	_, err := svc.SetDayAvailability(context.Background(), &models.SetDayRequest{Principal: student, DayOfWeek: 1})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestAddBlockedRange(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeTxManager{}, logger.NewNop())

	resp, err := svc.AddBlockedRange(context.Background(), &models.AddBlockedRangeRequest{
		Principal: teacher,
		StartDate: "2026-12-30",
		EndDate:   "2027-01-08",
		Reason:    "<i>Каникулы</i>",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "Каникулы", resp.Reason)

	// Период из одного дня допустим
	_, err = svc.AddBlockedRange(context.Background(), &models.AddBlockedRangeRequest{
		Principal: teacher, StartDate: "2026-11-04", EndDate: "2026-11-04",
	})
	assert.NoError(t, err)

	_, err = svc.AddBlockedRange(context.Background(), &models.AddBlockedRangeRequest{
		Principal: teacher, StartDate: "2026-11-05", EndDate: "2026-11-04",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddBlockedRange(context.Background(), &models.AddBlockedRangeRequest{
		Principal: teacher, StartDate: "04.11.2026", EndDate: "2026-11-04",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRemoveBlockedRange(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeTxManager{}, logger.NewNop())
	_, err := svc.AddBlockedRange(context.Background(), &models.AddBlockedRangeRequest{
		Principal: teacher, StartDate: "2026-11-04", EndDate: "2026-11-04",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RemoveBlockedRange(context.Background(), student, 1), ErrAccessDenied)
	assert.NoError(t, svc.RemoveBlockedRange(context.Background(), teacher, 1))
	assert.ErrorIs(t, svc.RemoveBlockedRange(context.Background(), teacher, 1), ErrBlockedRangeNotFound)
}

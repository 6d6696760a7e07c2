package availability

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-TutorBooking/pkg/psqlbuilder"
)

const (
	daysTable    = "weekly_availability"
	slotsTable   = "availability_slots"
	blockedTable = "blocked_ranges"
)

// Repository репозиторий недельного шаблона и закрытых периодов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория доступности
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetWeeklyDays получает все настроенные дни недели вместе со слотами
// Ненастроенных дней в результате нет, их достраивает domain.NewWeeklyTemplate
func (r *Repository) GetWeeklyDays(ctx context.Context) ([]domain.WeeklyAvailability, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("day_of_week", "is_available", "updated_at").
		From(daysTable).
		OrderBy("day_of_week ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyDays - build days query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyDays - execute days query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	days := make([]domain.WeeklyAvailability, 0, domain.DaysInWeek)
	index := make(map[int]int, domain.DaysInWeek)
	for rows.Next() {
		var day domain.WeeklyAvailability
		var updatedAt sql.NullTime
		if err := rows.Scan(&day.DayOfWeek, &day.IsAvailable, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: GetWeeklyDays - scan day: %v", ErrScanRow, err)
		}
		day.UpdatedAt = updatedAt.Time
		day.Slots = []domain.TimeRange{}
		index[day.DayOfWeek] = len(days)
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyDays - days rows error: %v", ErrScanRow, err)
	}

	slots, err := r.getSlots(ctx, executor)
	if err != nil {
		return nil, err
	}
	for dayOfWeek, ranges := range slots {
		if i, ok := index[dayOfWeek]; ok {
			days[i].Slots = ranges
		}
	}

	return days, nil
}

func (r *Repository) getSlots(ctx context.Context, executor dbmetrics.DBExecutor) (map[int][]domain.TimeRange, error) {
	query, args, err := psqlbuilder.Select("day_of_week", "start_time", "end_time").
		From(slotsTable).
		OrderBy("day_of_week ASC", "start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getSlots - build slots query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getSlots - execute slots query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make(map[int][]domain.TimeRange)
	for rows.Next() {
		var dayOfWeek int
		var slot domain.TimeRange
		if err := rows.Scan(&dayOfWeek, &slot.Start, &slot.End); err != nil {
			return nil, fmt.Errorf("%w: getSlots - scan slot: %v", ErrScanRow, err)
		}
		result[dayOfWeek] = append(result[dayOfWeek], slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getSlots - rows error: %v", ErrScanRow, err)
	}

	return result, nil
}

// ReplaceDay перезаписывает день недели целиком: флаг доступности и все слоты
// Вызывать внутри транзакции, иначе читатель может увидеть день без слотов
func (r *Repository) ReplaceDay(ctx context.Context, day domain.WeeklyAvailability) (*domain.WeeklyAvailability, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	// 1. Upsert дня
	query, args, err := psqlbuilder.Insert(daysTable).
		Columns("day_of_week", "is_available").
		Values(day.DayOfWeek, day.IsAvailable).
		Suffix("ON CONFLICT (day_of_week) DO UPDATE SET is_available = EXCLUDED.is_available, updated_at = NOW() RETURNING updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ReplaceDay - build upsert query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt); err != nil {
		return nil, fmt.Errorf("%w: ReplaceDay - execute upsert: %v", ErrExecQuery, err)
	}
	day.UpdatedAt = updatedAt.Time

	// 2. Удаляем старые слоты
	query, args, err = psqlbuilder.Delete(slotsTable).
		Where(squirrel.Eq{"day_of_week": day.DayOfWeek}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ReplaceDay - build delete query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: ReplaceDay - execute delete: %v", ErrExecQuery, err)
	}

	// 3. Вставляем новые слоты одним запросом
	day.Slots = day.SortedSlots()
	if len(day.Slots) == 0 {
		return &day, nil
	}

	insertBuilder := psqlbuilder.Insert(slotsTable).Columns("day_of_week", "start_time", "end_time")
	for _, slot := range day.Slots {
		insertBuilder = insertBuilder.Values(day.DayOfWeek, slot.Start, slot.End)
	}

	query, args, err = insertBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ReplaceDay - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: ReplaceDay - execute insert: %v", ErrExecQuery, err)
	}

	return &day, nil
}

// GetBlockedRanges получает закрытые периоды, отсортированные по дате начала
// from != nil - только периоды, которые заканчиваются не раньше from
func (r *Repository) GetBlockedRanges(ctx context.Context, from *time.Time) ([]domain.BlockedRange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "start_date", "end_date", "reason", "created_at").
		From(blockedTable).
		OrderBy("start_date ASC", "id ASC")

	if from != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"end_date": from.Format(domain.DateFormat)})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBlockedRanges - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetBlockedRanges - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	ranges := make([]domain.BlockedRange, 0)
	for rows.Next() {
		var b domain.BlockedRange
		var createdAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.StartDate, &b.EndDate, &b.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: GetBlockedRanges - scan row: %v", ErrScanRow, err)
		}
		b.CreatedAt = createdAt.Time
		ranges = append(ranges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetBlockedRanges - rows error: %v", ErrScanRow, err)
	}

	return ranges, nil
}

// CreateBlockedRange создает закрытый период
func (r *Repository) CreateBlockedRange(ctx context.Context, b *domain.BlockedRange) (*domain.BlockedRange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(blockedTable).
		Columns("start_date", "end_date", "reason").
		Values(b.StartDate.Format(domain.DateFormat), b.EndDate.Format(domain.DateFormat), b.Reason).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateBlockedRange - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&b.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: CreateBlockedRange - execute insert: %v", ErrExecQuery, err)
	}
	b.CreatedAt = createdAt.Time

	return b, nil
}

// DeleteBlockedRange удаляет закрытый период
func (r *Repository) DeleteBlockedRange(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(blockedTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteBlockedRange - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DeleteBlockedRange - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DeleteBlockedRange - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrBlockedRangeNotFound
	}

	return nil
}

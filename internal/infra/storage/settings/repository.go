package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-TutorBooking/pkg/psqlbuilder"
)

const (
	table = "booking_settings"

	// singletonID настройки хранятся одной строкой
	singletonID = 1
)

// Repository репозиторий глобальных настроек бронирования
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория настроек
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get получает настройки
func (r *Repository) Get(ctx context.Context) (*domain.BookingSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"min_advance_hours",
		"max_advance_days",
		"cancel_limit_hours",
		"lesson_price",
		"updated_at",
	).
		From(table).
		Where(squirrel.Eq{"id": singletonID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var settings domain.BookingSettings
	var updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&settings.MinAdvanceHours,
		&settings.MaxAdvanceDays,
		&settings.CancelLimitHours,
		&settings.LessonPrice,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan settings: %v", ErrScanRow, err)
	}

	settings.UpdatedAt = updatedAt.Time

	return &settings, nil
}

// Upsert сохраняет настройки (last write wins)
func (r *Repository) Upsert(ctx context.Context, settings *domain.BookingSettings) (*domain.BookingSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"id",
			"min_advance_hours",
			"max_advance_days",
			"cancel_limit_hours",
			"lesson_price",
		).
		Values(
			singletonID,
			settings.MinAdvanceHours,
			settings.MaxAdvanceDays,
			settings.CancelLimitHours,
			settings.LessonPrice,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			min_advance_hours = EXCLUDED.min_advance_hours,
			max_advance_days = EXCLUDED.max_advance_days,
			cancel_limit_hours = EXCLUDED.cancel_limit_hours,
			lesson_price = EXCLUDED.lesson_price
		RETURNING updated_at`).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %v", ErrExecQuery, err)
	}

	settings.UpdatedAt = updatedAt.Time

	return settings, nil
}

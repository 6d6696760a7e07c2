package notification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-TutorBooking/pkg/psqlbuilder"
)

const table = "notifications"

// Repository репозиторий уведомлений
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория уведомлений
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет уведомление
func (r *Repository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("recipient_id", "booking_id", "kind", "title", "body").
		Values(n.RecipientID, n.BookingID, n.Kind, n.Title, n.Body).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&n.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}
	n.CreatedAt = createdAt.Time

	return n, nil
}

// GetByRecipient получает уведомления пользователя, новые сначала
func (r *Repository) GetByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit uint64) ([]*domain.Notification, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "recipient_id", "booking_id", "kind", "title", "body", "is_read", "created_at").
		From(table).
		Where(squirrel.Eq{"recipient_id": recipientID}).
		OrderBy("created_at DESC", "id DESC")

	if unreadOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_read": false})
	}
	if limit > 0 {
		selectBuilder = selectBuilder.Limit(limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByRecipient - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByRecipient - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]*domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		var createdAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.BookingID, &n.Kind, &n.Title, &n.Body, &n.IsRead, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: GetByRecipient - scan row: %v", ErrScanRow, err)
		}
		n.CreatedAt = createdAt.Time
		result = append(result, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetByRecipient - rows error: %v", ErrScanRow, err)
	}

	return result, nil
}

// CountUnread количество непрочитанных уведомлений пользователя
func (r *Repository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From(table).
		Where(squirrel.Eq{"recipient_id": recipientID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountUnread - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountUnread - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// MarkRead отмечает уведомление прочитанным. Возвращает true, если оно было непрочитанным
func (r *Repository) MarkRead(ctx context.Context, id int64, recipientID uuid.UUID) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	// Условие is_read = false: повторная отметка не меняет строку и счетчик не уменьшается дважды
	query, args, err := psqlbuilder.Update(table).
		Set("is_read", true).
		Where(squirrel.Eq{"id": id, "recipient_id": recipientID, "is_read": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: MarkRead - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: MarkRead - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: MarkRead - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected > 0 {
		return true, nil
	}

	// Ничего не обновлено: либо уже прочитано, либо чужое/несуществующее
	exists, err := r.exists(ctx, executor, id, recipientID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotificationNotFound
	}

	return false, nil
}

func (r *Repository) exists(ctx context.Context, executor dbmetrics.DBExecutor, id int64, recipientID uuid.UUID) (bool, error) {
	query, args, err := psqlbuilder.Select("1").
		From(table).
		Where(squirrel.Eq{"id": id, "recipient_id": recipientID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: exists - build select query: %v", ErrBuildQuery, err)
	}

	var one int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: exists - scan row: %v", ErrScanRow, err)
	}

	return true, nil
}

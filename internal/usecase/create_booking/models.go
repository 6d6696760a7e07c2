package create_booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	Principal domain.Principal // Кто бронирует (из токена)
	Date      time.Time        // Дата бронирования (без времени)
	StartTime types.TimeString // Время начала слота (например, "10:00")
	EndTime   types.TimeString // Время окончания слота
	Notes     *string          // Комментарий ученика (опционально)
}

// Slot окно запроса
func (r *Request) Slot() domain.TimeRange {
	return domain.TimeRange{Start: r.StartTime, End: r.EndTime}
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID          int64            // ID созданного бронирования
	StudentID   uuid.UUID        // ID ученика
	StudentName string           // Имя ученика на момент записи
	BookingDate time.Time        // Дата бронирования
	StartTime   types.TimeString // Время начала
	EndTime     types.TimeString // Время окончания
	Status      string           // Статус бронирования (всегда pending)
	Notes       *string          // Комментарий
	Price       *float64         // Цена урока из настроек

	CreatedAt time.Time // Время создания
	UpdatedAt time.Time // Время обновления
}

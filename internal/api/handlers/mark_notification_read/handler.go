package mark_notification_read

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TutorBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TutorBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TutorBooking/internal/service/notifications"
)

const (
	msgInvalidNotificationID = "некорректный ID уведомления"
	msgNotFound              = "уведомление не найдено"
	msgUnauthorized          = "требуется авторизация"
)

type Handler struct {
	service NotificationService
	logger  Logger
}

func NewHandler(service NotificationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/notifications/{notificationId}/read
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["notificationId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /notifications/{id}/read - Invalid notification ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidNotificationID)
		return
	}

	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	if err := h.service.MarkRead(r.Context(), principal.ID, id); err != nil {
		switch {
		case errors.Is(err, notifications.ErrNotificationNotFound):
			// Чужое уведомление неотличимо от несуществующего
			h.logger.Warn("PATCH /notifications/{id}/read - Not found: id=%d, user_id=%s", id, principal.ID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, notifications.ErrInternal):
			h.logger.Error("PATCH /notifications/{id}/read - Backend failure: id=%d, error=%v", id, err)
			handlers.RespondServiceUnavailable(w)

		default:
			h.logger.Error("PATCH /notifications/{id}/read - Failed to mark read: id=%d, error=%v", id, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /notifications/{id}/read - Notification marked read: id=%d", id)
	w.WriteHeader(http.StatusNoContent)
}

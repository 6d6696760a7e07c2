package get_notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-TutorBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TutorBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TutorBooking/internal/service/notifications"
	"github.com/m04kA/SMC-TutorBooking/internal/service/notifications/models"
)

const (
	msgInvalidLimit = "некорректный параметр limit"
	msgInvalidFlag  = "некорректный параметр unreadOnly"
	msgUnauthorized = "требуется авторизация"
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

// Handle GET /api/v1/notifications?unreadOnly=true&limit=20
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	req := models.ListRequest{RecipientID: principal.ID}
	query := r.URL.Query()

	if raw := query.Get("unreadOnly"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.logger.Warn("GET /notifications - Invalid unreadOnly: %s", raw)
			handlers.RespondBadRequest(w, msgInvalidFlag)
			return
		}
		req.UnreadOnly = v
	}

	if raw := query.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			h.logger.Warn("GET /notifications - Invalid limit: %s", raw)
			handlers.RespondBadRequest(w, msgInvalidLimit)
			return
		}
		req.Limit = v
	}

	result, err := h.service.List(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, notifications.ErrInvalidInput):
			h.logger.Warn("GET /notifications - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, notifications.ErrInternal):
			h.logger.Error("GET /notifications - Backend failure: user_id=%s, error=%v", principal.ID, err)
			handlers.RespondServiceUnavailable(w)

		default:
			h.logger.Error("GET /notifications - Failed to list notifications: user_id=%s, error=%v", principal.ID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /notifications - Notifications retrieved successfully: user_id=%s, count=%d, unread=%d",
		principal.ID, len(result.Notifications), result.UnreadCount)
	handlers.RespondJSON(w, http.StatusOK, result)
}

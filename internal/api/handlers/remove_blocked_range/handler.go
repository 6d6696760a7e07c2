package remove_blocked_range

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TutorBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TutorBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TutorBooking/internal/service/availability"
)

const (
	msgInvalidRangeID = "некорректный ID периода"
	msgNotFound       = "период не найден"
	msgUnauthorized   = "требуется авторизация"
	msgForbidden      = "открывать даты может только преподаватель"
)

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/availability/blocked-ranges/{rangeId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	rangeID, err := strconv.ParseInt(mux.Vars(r)["rangeId"], 10, 64)
	if err != nil {
		h.logger.Warn("DELETE /availability/blocked-ranges/{id} - Invalid range ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRangeID)
		return
	}

	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	if err := h.service.RemoveBlockedRange(r.Context(), principal, rangeID); err != nil {
		switch {
		case errors.Is(err, availability.ErrBlockedRangeNotFound):
			h.logger.Warn("DELETE /availability/blocked-ranges/{id} - Not found: id=%d", rangeID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, availability.ErrAccessDenied):
			h.logger.Warn("DELETE /availability/blocked-ranges/{id} - Access denied: user_id=%s", principal.ID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, availability.ErrInternal):
			h.logger.Error("DELETE /availability/blocked-ranges/{id} - Backend failure: id=%d, error=%v", rangeID, err)
			handlers.RespondServiceUnavailable(w)

		default:
			h.logger.Error("DELETE /availability/blocked-ranges/{id} - Failed to remove range: id=%d, error=%v", rangeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /availability/blocked-ranges/{id} - Range removed successfully: id=%d", rangeID)
	w.WriteHeader(http.StatusNoContent)
}

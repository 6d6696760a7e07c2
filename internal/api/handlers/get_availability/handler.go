package get_availability

import (
	"net/http"

	"github.com/m04kA/SMC-TutorBooking/internal/api/handlers"
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

// Handle GET /api/v1/availability
// Публичный endpoint: недельный шаблон (всегда 7 дней) и закрытые периоды
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetAvailability(r.Context())
	if err != nil {
		h.logger.Error("GET /availability - Failed to get availability: %v", err)
		handlers.RespondServiceUnavailable(w)
		return
	}

	h.logger.Info("GET /availability - Availability retrieved successfully: blocked_ranges=%d",
		len(result.BlockedRanges))
	handlers.RespondJSON(w, http.StatusOK, result)
}

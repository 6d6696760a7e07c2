package sweep_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-TutorBooking/internal/api/handlers"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/teacher/sweep
// Ручной запуск автозавершения прошедших уроков
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Sweep(r.Context())
	if err != nil {
		h.logger.Error("POST /teacher/sweep - Sweep failed: %v", err)
		handlers.RespondServiceUnavailable(w)
		return
	}

	h.logger.Info("POST /teacher/sweep - Completed %d bookings", result.Completed)
	handlers.RespondJSON(w, http.StatusOK, result)
}

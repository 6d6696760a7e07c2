package stream_events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TutorBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/changefeed"
)

const (
	msgUnauthorized     = "требуется авторизация"
	msgStreamingFailure = "сервер не поддерживает потоковую передачу"

	defaultHeartbeat = 25 * time.Second
)

type Handler struct {
	source    EventSource
	heartbeat time.Duration
	logger    Logger
}

func NewHandler(source EventSource, logger Logger) *Handler {
	return &Handler{
		source:    source,
		heartbeat: defaultHeartbeat,
		logger:    logger,
	}
}

// Handle GET /api/v1/events
// Server-Sent Events: каждое видимое пользователю изменение отдается строкой data: {json}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("GET /events - ResponseWriter does not support flushing")
		handlers.RespondError(w, http.StatusInternalServerError, msgStreamingFailure)
		return
	}

	events, unsubscribe := h.source.Subscribe(changefeed.VisibleTo(principal))
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Info("GET /events - Stream opened: user_id=%s, role=%s", principal.ID, principal.Role)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("GET /events - Stream closed: user_id=%s", principal.ID)
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				h.logger.Warn("GET /events - Heartbeat failed: user_id=%s, error=%v", principal.ID, err)
				return
			}
			flusher.Flush()

		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("GET /events - Failed to encode event: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				h.logger.Warn("GET /events - Write failed: user_id=%s, error=%v", principal.ID, err)
				return
			}
			flusher.Flush()
		}
	}
}

package get_billing_report

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TutorBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TutorBooking/internal/service/billing"
)

const (
	msgInvalidDate  = "некорректная дата, ожидается формат YYYY-MM-DD"
	msgUnauthorized = "требуется авторизация"
	msgForbidden    = "отчет доступен только преподавателю"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	service BillingService
	logger  Logger
}

func NewHandler(service BillingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/billing?from=2026-09-01&to=2026-10-31
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	req, err := ToServiceRequest(principal, r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /billing - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	report, err := h.service.Report(r.Context(), req)
	if err != nil {
		h.respondError(w, "GET /billing", err)
		return
	}

	h.logger.Info("GET /billing - Report built successfully: lessons=%d, total=%.2f", report.Lessons, report.Total)
	handlers.RespondJSON(w, http.StatusOK, report)
}

// HandleExport GET /api/v1/billing/export?from=...&to=...
// Тот же отчет файлом Excel
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	req, err := ToServiceRequest(principal, r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /billing/export - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	buf, err := h.service.ExportXLSX(r.Context(), req)
	if err != nil {
		h.respondError(w, "GET /billing/export", err)
		return
	}

	filename := fmt.Sprintf("billing-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("GET /billing/export - Failed to write file: %v", err)
		return
	}

	h.logger.Info("GET /billing/export - Report exported successfully: user_id=%s", principal.ID)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, billing.ErrAccessDenied):
		h.logger.Warn("%s - Access denied: %v", op, err)
		handlers.RespondForbidden(w, msgForbidden)

	case errors.Is(err, billing.ErrInvalidInput):
		h.logger.Warn("%s - Validation failed: %v", op, err)
		handlers.RespondBadRequest(w, err.Error())

	case errors.Is(err, billing.ErrInternal):
		h.logger.Error("%s - Backend failure: %v", op, err)
		handlers.RespondServiceUnavailable(w)

	default:
		h.logger.Error("%s - Failed to build report: %v", op, err)
		handlers.RespondInternalError(w)
	}
}

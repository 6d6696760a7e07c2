package get_billing_report

import (
	"bytes"
	"context"

	"github.com/m04kA/SMC-TutorBooking/internal/service/billing/models"
)

type BillingService interface {
	Report(ctx context.Context, req *models.ReportRequest) (*models.ReportResponse, error)
	ExportXLSX(ctx context.Context, req *models.ReportRequest) (*bytes.Buffer, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

package get_billing_report

import (
	"fmt"
	"net/url"
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/internal/service/billing/models"
)

// ToServiceRequest собирает запрос отчета из query параметров from и to
func ToServiceRequest(principal domain.Principal, query url.Values) (*models.ReportRequest, error) {
	req := &models.ReportRequest{Principal: principal}

	from, err := parseOptionalDate(query.Get("from"))
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	to, err := parseOptionalDate(query.Get("to"))
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}

	req.StartDate = from
	req.EndDate = to
	return req, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

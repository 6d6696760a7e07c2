package billing

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/internal/service/billing/models"
)

const (
	sheetLessons = "Уроки"
	sheetMonths  = "По месяцам"
)

// Service история оплат преподавателя по проведенным урокам
type Service struct {
	bookingRepo BookingRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса оплат
func NewService(bookingRepo BookingRepository, logger Logger) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Report проведенные уроки за период и итоги по месяцам
func (s *Service) Report(ctx context.Context, req *models.ReportRequest) (*models.ReportResponse, error) {
	s.logger.Info("Report: billing report from=%v to=%v by user=%s", req.StartDate, req.EndDate, req.Principal.ID)

	// 1. Проверяем права доступа
	if !req.Principal.IsTeacher() {
		s.logger.Warn("Report: user=%s is not the teacher", req.Principal.ID)
		return nil, ErrAccessDenied
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, fmt.Errorf("%w: end date must not be before start date", ErrInvalidInput)
	}

	// 2. Только завершенные уроки
	completed := domain.StatusCompleted
	list, err := s.bookingRepo.GetWithFilter(ctx, domain.BookingsFilter{
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Status:          &completed,
		IncludeInactive: true,
	})
	if err != nil {
		s.logger.Error("Report: repository error: %v", err)
		return nil, fmt.Errorf("%w: Report - repository error: %v", ErrInternal, err)
	}

	// 3. Хронологический порядок
	sort.SliceStable(list, func(i, j int) bool {
		if !domain.SameDay(list[i].BookingDate, list[j].BookingDate) {
			return list[i].BookingDate.Before(list[j].BookingDate)
		}
		return list[i].StartTime.IsBefore(list[j].StartTime)
	})

	// 4. Итоги по месяцам
	report := &models.ReportResponse{
		Entries: make([]models.EntryResponse, 0, len(list)),
		Months:  make([]models.MonthTotalResponse, 0),
	}
	monthIndex := make(map[string]int)

	for _, b := range list {
		report.Entries = append(report.Entries, models.FromDomainBooking(b))

		month := b.BookingDate.Format(models.MonthLayout)
		idx, ok := monthIndex[month]
		if !ok {
			idx = len(report.Months)
			monthIndex[month] = idx
			report.Months = append(report.Months, models.MonthTotalResponse{Month: month})
		}

		report.Months[idx].Lessons++
		report.Lessons++
		if b.Price == nil {
			report.Months[idx].Unpriced++
			continue
		}
		report.Months[idx].Total += *b.Price
		report.Total += *b.Price
	}

	s.logger.Info("Report: %d lessons in %d months", report.Lessons, len(report.Months))
	return report, nil
}

// ExportXLSX тот же отчет книгой Excel: лист уроков и лист итогов по месяцам
func (s *Service) ExportXLSX(ctx context.Context, req *models.ReportRequest) (*bytes.Buffer, error) {
	report, err := s.Report(ctx, req)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetLessons); err != nil {
		return nil, fmt.Errorf("%w: ExportXLSX - rename sheet: %v", ErrInternal, err)
	}
	if _, err := f.NewSheet(sheetMonths); err != nil {
		return nil, fmt.Errorf("%w: ExportXLSX - create sheet: %v", ErrInternal, err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	// Лист уроков
	writeRow(f, sheetLessons, 1, "ID", "Дата", "Начало", "Конец", "Студент", "Цена")
	for i, e := range report.Entries {
		var price interface{}
		if e.Price != nil {
			price = *e.Price
		}
		writeRow(f, sheetLessons, i+2, e.BookingID, e.BookingDate, e.StartTime, e.EndTime, e.StudentName, price)
	}
	f.SetCellStyle(sheetLessons, "A1", "F1", headerStyle)
	f.SetColWidth(sheetLessons, "A", "F", 16)
	f.SetColWidth(sheetLessons, "E", "E", 30)

	// Лист итогов
	writeRow(f, sheetMonths, 1, "Месяц", "Уроков", "Без цены", "Сумма")
	for i, m := range report.Months {
		writeRow(f, sheetMonths, i+2, m.Month, m.Lessons, m.Unpriced, m.Total)
	}
	totalRow := len(report.Months) + 2
	writeRow(f, sheetMonths, totalRow, "Итого", report.Lessons, nil, report.Total)
	f.SetCellStyle(sheetMonths, "A1", "D1", headerStyle)
	totalCell := fmt.Sprintf("D%d", totalRow)
	f.SetCellStyle(sheetMonths, fmt.Sprintf("A%d", totalRow), totalCell, headerStyle)
	f.SetColWidth(sheetMonths, "A", "D", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("ExportXLSX: failed to write workbook: %v", err)
		return nil, fmt.Errorf("%w: ExportXLSX - write workbook: %v", ErrInternal, err)
	}

	s.logger.Info("ExportXLSX: exported %d lessons", report.Lessons)
	return buf, nil
}

// writeRow заполняет строку row начиная с колонки A. nil оставляет ячейку пустой
func writeRow(f *excelize.File, sheet string, row int, values ...interface{}) {
	for col, v := range values {
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}

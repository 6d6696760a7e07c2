package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	availabilityRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/availability"
	"github.com/m04kA/SMC-TutorBooking/internal/service/availability/models"
	"github.com/m04kA/SMC-TutorBooking/pkg/sanitize"
)

// Service правила доступности: недельный шаблон и закрытые периоды
type Service struct {
	repo      AvailabilityRepository
	txManager TransactionManager
	logger    Logger
}

// NewService создает новый экземпляр сервиса доступности
func NewService(repo AvailabilityRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// GetAvailability недельный шаблон и закрытые периоды
func (s *Service) GetAvailability(ctx context.Context) (*models.AvailabilityResponse, error) {
	template, err := s.GetWeeklyTemplate(ctx)
	if err != nil {
		return nil, err
	}
	blocked, err := s.GetBlockedRanges(ctx)
	if err != nil {
		return nil, err
	}
	return &models.AvailabilityResponse{
		WeeklyTemplateResponse:   *template,
		BlockedRangeListResponse: *blocked,
	}, nil
}

// GetWeeklyTemplate всегда 7 дней; ненастроенные дни недоступны и без слотов
func (s *Service) GetWeeklyTemplate(ctx context.Context) (*models.WeeklyTemplateResponse, error) {
	days, err := s.repo.GetWeeklyDays(ctx)
	if err != nil {
		s.logger.Error("GetWeeklyTemplate: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetWeeklyTemplate - repository error: %v", ErrInternal, err)
	}

	resp := models.FromDomainTemplate(domain.NewWeeklyTemplate(days))
	return &resp, nil
}

// GetBlockedRanges все закрытые периоды по дате начала
func (s *Service) GetBlockedRanges(ctx context.Context) (*models.BlockedRangeListResponse, error) {
	ranges, err := s.repo.GetBlockedRanges(ctx, nil)
	if err != nil {
		s.logger.Error("GetBlockedRanges: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetBlockedRanges - repository error: %v", ErrInternal, err)
	}

	resp := models.FromDomainBlockedRanges(ranges)
	return &resp, nil
}

// SetDayAvailability перезаписывает день недели целиком (последняя запись побеждает)
func (s *Service) SetDayAvailability(ctx context.Context, req *models.SetDayRequest) (*models.DayResponse, error) {
	s.logger.Info("SetDayAvailability: day=%d available=%t slots=%d by user=%s",
		req.DayOfWeek, req.IsAvailable, len(req.Slots), req.Principal.ID)

	// 1. Проверяем права доступа
	if !req.Principal.IsTeacher() {
		s.logger.Warn("SetDayAvailability: user=%s is not the teacher", req.Principal.ID)
		return nil, ErrAccessDenied
	}

	// 2. Разбираем и валидируем слоты
	day, err := req.ToDomain()
	if err != nil {
		s.logger.Warn("SetDayAvailability: invalid slots: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := day.Validate(); err != nil {
		s.logger.Warn("SetDayAvailability: validation failed for day=%d: %v", req.DayOfWeek, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 3. День и его слоты заменяются в одной транзакции
	var saved *domain.WeeklyAvailability
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		var replaceErr error
		saved, replaceErr = s.repo.ReplaceDay(txCtx, day)
		return replaceErr
	})
	if err != nil {
		s.logger.Error("SetDayAvailability: failed to save day=%d: %v", req.DayOfWeek, err)
		return nil, fmt.Errorf("%w: SetDayAvailability - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("SetDayAvailability: day=%d saved", saved.DayOfWeek)
	resp := models.FromDomainDay(*saved)
	return &resp, nil
}

// AddBlockedRange закрывает период для записи, включительно по дням
func (s *Service) AddBlockedRange(ctx context.Context, req *models.AddBlockedRangeRequest) (*models.BlockedRangeResponse, error) {
	s.logger.Info("AddBlockedRange: %s..%s by user=%s", req.StartDate, req.EndDate, req.Principal.ID)

	if !req.Principal.IsTeacher() {
		s.logger.Warn("AddBlockedRange: user=%s is not the teacher", req.Principal.ID)
		return nil, ErrAccessDenied
	}

	start, err := time.Parse(domain.DateFormat, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid startDate, expected YYYY-MM-DD", ErrInvalidInput)
	}
	end, err := time.Parse(domain.DateFormat, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endDate, expected YYYY-MM-DD", ErrInvalidInput)
	}

	blocked := domain.BlockedRange{
		StartDate: start,
		EndDate:   end,
		Reason:    sanitize.Text(req.Reason),
	}
	if err := blocked.Validate(); err != nil {
		s.logger.Warn("AddBlockedRange: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created, err := s.repo.CreateBlockedRange(ctx, &blocked)
	if err != nil {
		s.logger.Error("AddBlockedRange: repository error: %v", err)
		return nil, fmt.Errorf("%w: AddBlockedRange - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("AddBlockedRange: created blocked range id=%d", created.ID)
	resp := models.FromDomainBlockedRange(*created)
	return &resp, nil
}

// RemoveBlockedRange удаляет закрытый период
func (s *Service) RemoveBlockedRange(ctx context.Context, principal domain.Principal, id int64) error {
	s.logger.Info("RemoveBlockedRange: id=%d by user=%s", id, principal.ID)

	if !principal.IsTeacher() {
		s.logger.Warn("RemoveBlockedRange: user=%s is not the teacher", principal.ID)
		return ErrAccessDenied
	}

	if err := s.repo.DeleteBlockedRange(ctx, id); err != nil {
		if errors.Is(err, availabilityRepo.ErrBlockedRangeNotFound) {
			s.logger.Warn("RemoveBlockedRange: id=%d not found", id)
			return ErrBlockedRangeNotFound
		}
		s.logger.Error("RemoveBlockedRange: repository error for id=%d: %v", id, err)
		return fmt.Errorf("%w: RemoveBlockedRange - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("RemoveBlockedRange: deleted id=%d", id)
	return nil
}

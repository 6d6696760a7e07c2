package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	settingsRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/settings"
	"github.com/m04kA/SMC-TutorBooking/internal/service/settings/models"
)

// Service сервис настроек бронирования (единственная запись)
type Service struct {
	repo   SettingsRepository
	logger Logger
}

// NewService создает новый экземпляр сервиса настроек
func NewService(repo SettingsRepository, logger Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Get возвращает текущие настройки; если их еще не сохраняли - значения по умолчанию
func (s *Service) Get(ctx context.Context) (*models.SettingsResponse, error) {
	current, isDefault, err := s.load(ctx, "Get")
	if err != nil {
		return nil, err
	}
	return models.FromDomainSettings(current, isDefault), nil
}

// Update обновляет настройки. Доступно только преподавателю
// Поддерживает частичное обновление - обновляются только указанные поля
func (s *Service) Update(ctx context.Context, req *models.UpdateSettingsRequest) (*models.SettingsResponse, error) {
	s.logger.Info("Update: updating booking settings by user=%s", req.Principal.ID)

	// 1. Проверяем права доступа
	if !req.Principal.IsTeacher() {
		s.logger.Warn("Update: user=%s is not the teacher", req.Principal.ID)
		return nil, ErrAccessDenied
	}

	// 2. Получаем текущие настройки
	current, _, err := s.load(ctx, "Update")
	if err != nil {
		return nil, err
	}

	// 3. Применяем обновления и валидируем результат
	req.ApplyTo(current)
	if err := current.Validate(); err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 4. Сохраняем
	updated, err := s.repo.Upsert(ctx, current)
	if err != nil {
		s.logger.Error("Update: repository error: %v", err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: settings saved min=%dh max=%dd cancel=%dh",
		updated.MinAdvanceHours, updated.MaxAdvanceDays, updated.CancelLimitHours)
	return models.FromDomainSettings(updated, false), nil
}

func (s *Service) load(ctx context.Context, op string) (*domain.BookingSettings, bool, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, settingsRepo.ErrSettingsNotFound) {
			defaults := domain.DefaultBookingSettings()
			return &defaults, true, nil
		}
		s.logger.Error("%s: repository error: %v", op, err)
		return nil, false, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return current, false, nil
}

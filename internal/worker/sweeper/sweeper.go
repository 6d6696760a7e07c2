package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-TutorBooking/internal/service/bookings/models"
)

// BookingSweeper переводит прошедшие подтвержденные уроки в completed
type BookingSweeper interface {
	Sweep(ctx context.Context) (*models.SweepResponse, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Sweeper фоновая задача автозавершения уроков
type Sweeper struct {
	bookings BookingSweeper
	interval time.Duration
	logger   Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New создает задачу с периодом interval
func New(bookings BookingSweeper, interval time.Duration, logger Logger) *Sweeper {
	return &Sweeper{
		bookings: bookings,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает задачу в отдельной горутине
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Sweeper: starting, interval=%s", s.interval)
	go s.run(ctx)
}

// Stop останавливает задачу и ждет завершения текущего прохода
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Sweeper: stopping")
		close(s.stopChan)
	})
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	// Первый проход сразу при старте
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Sweeper: stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Sweeper: cancelled")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	result, err := s.bookings.Sweep(ctx)
	if err != nil {
		s.logger.Error("Sweeper: sweep failed: %v", err)
		return
	}
	if result.Completed > 0 {
		s.logger.Info("Sweeper: completed %d bookings", result.Completed)
	}
}

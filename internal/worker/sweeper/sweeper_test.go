package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-TutorBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-TutorBooking/pkg/logger"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) Sweep(_ context.Context) (*models.SweepResponse, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &models.SweepResponse{Completed: 1}, nil
}

func TestSweeper_RunsImmediatelyAndOnTicks(t *testing.T) {
	target := &countingSweeper{}
	s := New(target, 10*time.Millisecond, logger.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	s.Stop()
	stopped := target.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, target.calls.Load())
}

func TestSweeper_StopsOnContextCancel(t *testing.T) {
	target := &countingSweeper{err: errors.New("db down")}
	s := New(target, time.Hour, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return target.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	s.Stop()
	assert.Equal(t, int32(1), target.calls.Load())
}

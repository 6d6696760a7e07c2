package changefeed

import (
	"context"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// LocalFeed лента без Redis: события раздаются только внутри процесса
// Используется, когда redis.enabled = false (один инстанс, локальная разработка)
type LocalFeed struct {
	hub *Hub
}

func NewLocalFeed(hub *Hub) *LocalFeed {
	return &LocalFeed{hub: hub}
}

func (f *LocalFeed) Publish(_ context.Context, event domain.ChangeEvent) error {
	f.hub.Broadcast(event)
	return nil
}

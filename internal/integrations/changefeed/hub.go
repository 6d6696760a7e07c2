package changefeed

import (
	"sync"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// subscriberBuffer сколько событий может накопиться у медленного подписчика
const subscriberBuffer = 32

type subscriber struct {
	ch     chan domain.ChangeEvent
	filter func(domain.ChangeEvent) bool
}

// Hub раздает события подписчикам внутри процесса (SSE-клиенты, инвалидация кэшей)
// Медленный подписчик теряет события, но не блокирует остальных
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]subscriber)}
}

// Subscribe регистрирует подписчика. filter == nil - все события
// Возвращаемую функцию нужно вызвать для отписки, после нее канал закрыт
func (h *Hub) Subscribe(filter func(domain.ChangeEvent) bool) (<-chan domain.ChangeEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	sub := subscriber{ch: make(chan domain.ChangeEvent, subscriberBuffer), filter: filter}
	h.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Broadcast отправляет событие всем подходящим подписчикам, не блокируясь
func (h *Hub) Broadcast(event domain.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribers количество активных подписчиков
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// VisibleTo событие видно пользователю: преподавателю видно все, студенту - только адресованное ему
func VisibleTo(principal domain.Principal) func(domain.ChangeEvent) bool {
	return func(e domain.ChangeEvent) bool {
		if principal.IsTeacher() {
			return e.Audience == nil || e.Entity == domain.EntityBooking || *e.Audience == principal.ID
		}
		return e.Audience != nil && *e.Audience == principal.ID
	}
}

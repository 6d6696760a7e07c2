package notifications

import (
	"sync"

	"github.com/google/uuid"
)

// unreadCache счетчики непрочитанных уведомлений в памяти процесса
// Кэш только подсказка: источник истины - таблица notifications.
// Изменения применяются сразу (Apply) и затем фиксируются или откатываются,
// запись из ленты изменений сбрасывает значение (Invalidate)
type unreadCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*unreadEntry
}

type unreadEntry struct {
	count   int
	version uint64
}

// pendingChange примененное, но еще не зафиксированное изменение счетчика
type pendingChange struct {
	cache   *unreadCache
	key     uuid.UUID
	delta   int
	version uint64
	applied bool
	done    bool
}

func newUnreadCache() *unreadCache {
	return &unreadCache{entries: make(map[uuid.UUID]*unreadEntry)}
}

// Get возвращает счетчик, если он есть в кэше
func (c *unreadCache) Get(key uuid.UUID) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return e.count, true
}

// Set кладет значение, прочитанное из БД
func (c *unreadCache) Set(key uuid.UUID, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.count = count
		e.version++
		return
	}
	c.entries[key] = &unreadEntry{count: count}
}

// Apply сразу применяет delta к счетчику. Если значения нет в кэше, применять нечего
func (c *unreadCache) Apply(key uuid.UUID, delta int) *pendingChange {
	c.mu.Lock()
	defer c.mu.Unlock()

	change := &pendingChange{cache: c, key: key, delta: delta}

	e, ok := c.entries[key]
	if !ok {
		return change
	}

	before := e.count
	e.count += delta
	if e.count < 0 {
		e.count = 0
	}
	e.version++

	// Откатывать нужно фактическое изменение, а не запрошенное
	change.delta = e.count - before
	change.applied = true
	change.version = e.version
	return change
}

// Invalidate сбрасывает счетчик: следующее чтение пойдет в БД
func (c *unreadCache) Invalidate(key uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Commit фиксирует изменение
func (p *pendingChange) Commit() {
	p.done = true
}

// Rollback отменяет изменение, если после него счетчик никто не трогал.
// Иначе значение сбрасывается целиком
func (p *pendingChange) Rollback() {
	if p.done || !p.applied {
		p.done = true
		return
	}
	p.done = true

	c := p.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[p.key]
	if !ok {
		return
	}
	if e.version != p.version {
		delete(c.entries, p.key)
		return
	}

	e.count -= p.delta
	if e.count < 0 {
		e.count = 0
	}
	e.version++
}

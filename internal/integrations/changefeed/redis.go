package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// RedisFeed лента изменений поверх Redis pub/sub
// Все инстансы сервиса публикуют в один канал и получают события друг друга
type RedisFeed struct {
	client  *redis.Client
	channel string
	hub     *Hub
	metrics Metrics
	log     Logger
}

// NewRedisFeed создает ленту. Полученные из канала события раздаются через hub
func NewRedisFeed(client *redis.Client, channel string, hub *Hub, metrics Metrics, log Logger) *RedisFeed {
	return &RedisFeed{
		client:  client,
		channel: channel,
		hub:     hub,
		metrics: metrics,
		log:     log,
	}
}

// Publish публикует событие в канал
func (f *RedisFeed) Publish(ctx context.Context, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("changefeed: marshal event: %w", err)
	}

	err = f.client.Publish(ctx, f.channel, payload).Err()
	f.observe("out", err)
	if err != nil {
		return fmt.Errorf("changefeed: publish: %w", err)
	}
	return nil
}

// Run слушает канал до отмены ctx
func (f *RedisFeed) Run(ctx context.Context) error {
	pubsub := f.client.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	// Ждем подтверждения подписки, чтобы не потерять первые события
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("changefeed: subscribe %s: %w", f.channel, err)
	}
	f.log.Info("ChangeFeed: subscribed to channel=%s", f.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			f.log.Info("ChangeFeed: stopped")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var event domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				f.observe("in", err)
				f.log.Warn("ChangeFeed: skip malformed event: %v", err)
				continue
			}

			f.observe("in", nil)
			f.hub.Broadcast(event)
		}
	}
}

// Ping проверка соединения с Redis
func (f *RedisFeed) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

func (f *RedisFeed) observe(direction string, err error) {
	if f.metrics != nil {
		f.metrics.IncChangeFeedEvent(direction, err)
	}
}

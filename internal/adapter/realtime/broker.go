package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"signaldesk/internal/domain"
	"signaldesk/pkg/logger"
)

// ChannelPrefix namespaces the Redis pub/sub channels
const ChannelPrefix = "signaldesk:"

// ChannelFor maps a hub topic to its Redis channel
func ChannelFor(topic string) string {
	if topic == domain.TopicAdmin {
		return ChannelPrefix + "admin-notifications"
	}
	return ChannelPrefix + topic
}

func topicFor(channel string) string {
	name := strings.TrimPrefix(channel, ChannelPrefix)
	if name == "admin-notifications" {
		return domain.TopicAdmin
	}
	return name
}

// Broker publishes events to the hub, through Redis when a client is configured
// so that every instance's hub receives them.
type Broker struct {
	hub    *Hub
	redis  *redis.Client
	logger *logger.Logger
}

// NewBroker creates a Broker. A nil rdb delivers in process only.
func NewBroker(hub *Hub, rdb *redis.Client, log *logger.Logger) *Broker {
	return &Broker{hub: hub, redis: rdb, logger: log}
}

// Publish implements domain.RealtimePublisher
func (b *Broker) Publish(ctx context.Context, topic string, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if b.redis == nil {
		b.hub.Broadcast(topic, payload)
		return nil
	}

	if err := b.redis.Publish(ctx, ChannelFor(topic), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Run relays Redis messages for topics into the hub until ctx is done.
// Without Redis it returns immediately.
func (b *Broker) Run(ctx context.Context, topics ...string) error {
	if b.redis == nil {
		return nil
	}

	channels := make([]string, 0, len(topics))
	for _, t := range topics {
		channels = append(channels, ChannelFor(t))
	}

	sub := b.redis.Subscribe(ctx, channels...)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %v: %w", channels, err)
	}
	b.logger.Info("Realtime broker subscribed", logger.Field("channels", channels))

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			n := b.hub.Broadcast(topicFor(msg.Channel), []byte(msg.Payload))
			b.logger.Debug("Relayed realtime event", logger.Field("channel", msg.Channel), logger.Field("clients", n))
		}
	}
}

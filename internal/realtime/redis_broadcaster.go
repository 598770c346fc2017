package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/brickstudio/backend/internal/live"
)

const (
	channelPrefix  = "workshop:"
	channelSuffix  = ":live"
	publishTimeout = 5 * time.Second
)

// RedisBroadcaster carries sync messages between instances over Redis pub/sub.
// One channel per workshop; Redis delivers per-channel messages to all
// subscribers in publish order, and the store's last-write-wins guard covers
// anything it does not.
type RedisBroadcaster struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBroadcaster creates a Redis-backed broadcaster.
func NewRedisBroadcaster(client *redis.Client, logger *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, logger: logger}
}

func channelFor(workshopID uuid.UUID) string {
	return channelPrefix + workshopID.String() + channelSuffix
}

// Publish sends a sync message on the workshop's channel. Fire-and-forget: no
// acknowledgement or retry.
func (b *RedisBroadcaster) Publish(workshopID uuid.UUID, msg live.SyncMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode sync message: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return b.client.Publish(ctx, channelFor(workshopID), body).Err()
}

// Subscribe opens a subscription on the workshop's channel and invokes
// onMessage for each decoded sync message. The returned cancel function stops
// the subscription.
func (b *RedisBroadcaster) Subscribe(workshopID uuid.UUID, onMessage func(live.SyncMessage)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, channelFor(workshopID))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				var msg live.SyncMessage
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					b.logger.Debug("dropping undecodable sync message",
						zap.String("workshop_id", workshopID.String()), zap.Error(err))
					continue
				}
				onMessage(msg)
			}
		}
	}()
	return func() { cancelCtx() }, nil
}

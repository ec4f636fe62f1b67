package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bus fans demand/response lifecycle events out over Redis pub/sub and,
// when a hub is attached, to connected websocket clients.
type Bus struct {
	rdb   *redis.Client
	log   *zap.Logger
	ctx   context.Context
	wsHub WSHub
}

type WSHub interface {
	Publish(channel string, message map[string]interface{})
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{
		rdb: rdb,
		log: log,
		ctx: context.Background(),
	}
}

// SetWSHub sets the WebSocket hub for event broadcasting
func (b *Bus) SetWSHub(hub WSHub) {
	b.wsHub = hub
}

// PublishUser publishes an event to a user's channel
func (b *Bus) PublishUser(userID string, event map[string]interface{}) error {
	return b.Publish("user:"+userID, event)
}

// PublishDemand publishes an event to a demand's channel
func (b *Bus) PublishDemand(demandID string, event map[string]interface{}) error {
	return b.Publish("demand:"+demandID, event)
}

// Publish publishes an event to a channel
func (b *Bus) Publish(channel string, event map[string]interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := b.rdb.Publish(b.ctx, channel, data).Err(); err != nil {
		b.log.Error("Failed to publish event", zap.String("channel", channel), zap.Error(err))
		return err
	}

	if b.wsHub != nil {
		b.wsHub.Publish(channel, event)
	}

	b.log.Debug("Published event", zap.String("channel", channel), zap.String("event", string(data)))
	return nil
}

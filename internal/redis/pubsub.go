package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"collabcanvas/internal/models"

	"github.com/go-redis/redis/v8"
)

// Deliverer receives room broadcasts for local members. *ws.Hub implements
// it.
type Deliverer interface {
	Deliver(msg *models.BroadcastMessage)
}

// Subscribe fans every room event published on Redis into hub until ctx is
// done or the subscription closes.
func Subscribe(ctx context.Context, client *Client, hub Deliverer) error {
	pattern := channelPrefix + "*"
	pubsub := client.rdb.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("confirm subscription: %w", err)
	}
	slog.Info("[REDIS] Subscription confirmed, listening for messages", "pattern", pattern)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				slog.Info("[REDIS] Redis pub/sub channel closed")
				return nil
			}
			hub.Deliver(toBroadcast(msg))
		}
	}
}

func toBroadcast(msg *redis.Message) *models.BroadcastMessage {
	return &models.BroadcastMessage{
		RoomID:  strings.TrimPrefix(msg.Channel, channelPrefix),
		Payload: []byte(msg.Payload),
	}
}

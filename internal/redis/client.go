// Package redis carries room broadcasts between server instances over
// Redis pub/sub.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"collabcanvas/internal/models"

	"github.com/go-redis/redis/v8"
)

// channelPrefix namespaces room channels; the subscriber listens on
// channelPrefix + "*".
const channelPrefix = "room:"

// Client publishes room broadcasts.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to redisURL and verifies the connection.
func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	slog.Info("[REDIS] Connected to Redis", "addr", opt.Addr)
	return &Client{rdb: rdb}, nil
}

// NewClientFrom wraps an existing go-redis client.
func NewClientFrom(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Channel is the pub/sub channel of a room.
func Channel(roomID string) string {
	return channelPrefix + roomID
}

// Publish sends an encoded room event to every subscribed instance.
func (c *Client) Publish(ctx context.Context, msg *models.BroadcastMessage) error {
	channel := Channel(msg.RoomID)
	if err := c.rdb.Publish(ctx, channel, msg.Payload).Err(); err != nil {
		slog.Error("[REDIS] Failed to publish event", "channel", channel, "error", err)
		return err
	}
	return nil
}

package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"tiktip/services/ledger/internal/entity"

	"github.com/redis/go-redis/v9"
)

const creatorChannelPrefix = "ledger:creator:"

// ChannelFor is the pub/sub channel carrying a creator's live ledger updates.
func ChannelFor(creatorID string) string {
	return creatorChannelPrefix + creatorID
}

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type RedisPublisher struct {
	client redisClient
}

func NewRedisPublisher(client redisClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Name() string {
	return "redis"
}

func (p *RedisPublisher) Publish(ctx context.Context, event entity.LedgerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}
	return p.client.Publish(ctx, ChannelFor(event.CreatorID), payload).Err()
}

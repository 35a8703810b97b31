package redis

import (
	"context"
	"fmt"

	"auction-bidding/internal/domain"

	"github.com/go-redis/redis/v8"
)

const eventsChannel = "auction_events"

type RedisEventPublisher struct {
	client *redis.Client
}

func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

var _ domain.EventPublisher = (*RedisEventPublisher)(nil)

// PublishBidEvent sends "auctionID:eventType:bidderID:amount:unixNanos".
func (r *RedisEventPublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	eventData := fmt.Sprintf("%d:%s:%d:%s:%d",
		event.AuctionID, event.Type, event.BidderID, event.Amount.String(), event.Timestamp.UnixNano())

	return r.client.Publish(ctx, eventsChannel, eventData).Err()
}

package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"auction-bidding/internal/domain"
	"auction-bidding/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

type RedisEventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisEventSubscriber(client *redis.Client, log logger.Logger) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client: client,
		log:    log,
	}
}

var _ domain.EventSubscriber = (*RedisEventSubscriber)(nil)

// SubscribeToBidEvents blocks until ctx is done or the subscription closes.
func (r *RedisEventSubscriber) SubscribeToBidEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := r.client.Subscribe(ctx, eventsChannel)
	defer pubsub.Close()

	// Wait for the subscription confirmation so no event published after this
	// call returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", eventsChannel, err)
	}

	ch := pubsub.Channel()

	r.log.Info("Subscribed to auction events")

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := parseEventData(msg.Payload)
			if err != nil {
				r.log.Error("Failed to parse event", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(event); err != nil {
				r.log.Error("Failed to handle event", "auction_id", event.AuctionID, "type", event.Type, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("Event subscriber stopped")
			return ctx.Err()
		}
	}
}

func parseEventData(payload string) (*domain.BidEvent, error) {
	// Parse "auctionID:eventType:bidderID:amount:unixNanos"
	parts := strings.Split(payload, ":")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid event format: %s", payload)
	}

	auctionID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, err
	}

	bidderID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(parts[3])
	if err != nil {
		return nil, err
	}

	nanos, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return nil, err
	}

	return &domain.BidEvent{
		AuctionID: auctionID,
		Type:      domain.BidEventType(parts[1]),
		BidderID:  bidderID,
		Amount:    amount,
		Timestamp: time.Unix(0, nanos),
	}, nil
}

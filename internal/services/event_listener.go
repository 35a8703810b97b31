package services

import (
	"context"
	"fmt"

	"auction-bidding/internal/domain"
	"auction-bidding/pkg/logger"
)

// EventListener fans accepted-bid events out to the spectators of each auction.
type EventListener struct {
	broadcaster domain.AuctionBroadcaster
	log         logger.Logger
}

func NewEventListener(broadcaster domain.AuctionBroadcaster, log logger.Logger) *EventListener {
	return &EventListener{
		broadcaster: broadcaster,
		log:         log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToBidEvents(ctx, el.handleBidEvent)
}

func (el *EventListener) handleBidEvent(event *domain.BidEvent) error {
	el.log.Debug("Handling bid event", "type", event.Type, "auction_id", event.AuctionID)

	switch event.Type {
	case domain.BidAccepted:
		return el.handleBidAccepted(event)
	}

	return fmt.Errorf("unknown event type %q", event.Type)
}

func (el *EventListener) handleBidAccepted(event *domain.BidEvent) error {
	return el.broadcaster.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
		"type":           "bid_update",
		"auction_id":     event.AuctionID,
		"current_bid":    event.Amount,
		"current_winner": event.BidderID,
		"timestamp":      event.Timestamp,
	})
}

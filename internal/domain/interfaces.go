package domain

import (
	"context"
	"time"
)

// Repository interfaces
type AuctionStore interface {
	CreateAuction(ctx context.Context, auction *Auction) (int64, error)
	GetAuction(ctx context.Context, auctionID int64) (*Auction, error)
	// ApplyBid is the only way to change an auction's current bid. The predicate
	// is evaluated by the store inside the same atomic write.
	ApplyBid(ctx context.Context, cmd BidCommand) (bool, error)
}

type BidAttemptStore interface {
	SaveBidAttempt(ctx context.Context, attempt *BidAttempt) error
	GetBidHistory(ctx context.Context, auctionID int64, limit int) ([]*BidAttempt, error)
}

// BidAttemptSink receives ledger rows from the background writer.
type BidAttemptSink interface {
	SaveBidAttempt(ctx context.Context, attempt *BidAttempt) error
}

// BidLedger is fire-and-forget: Append must never block the caller.
type BidLedger interface {
	Append(attempt *BidAttempt)
}

// Cache interfaces
type CurrentBidCache interface {
	RecordAccepted(ctx context.Context, bid *CachedBid) error
	// GetCurrentHighest returns ErrCacheMiss when the collection is absent or expired.
	GetCurrentHighest(ctx context.Context, auctionID int64) (*CachedBid, error)
}

// Event interfaces
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}

type EventSubscriber interface {
	SubscribeToBidEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *BidEvent) error

// Notification interfaces
type AuctionBroadcaster interface {
	BroadcastToAuction(ctx context.Context, auctionID int64, message interface{}) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	ConnID() string
	AuctionID() int64
}

type ConnectionManager interface {
	RegisterConnection(conn WebSocketConnection) error
	UnregisterConnection(conn WebSocketConnection) error
	GetConnectionsForAuction(auctionID int64) []WebSocketConnection
	BroadcastToAuction(auctionID int64, message interface{}) error
	CloseAll() error
}

// Clock lets services take "now" from tests.
type Clock func() time.Time

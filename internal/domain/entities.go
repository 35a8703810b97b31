package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auction is the durable record. Terms are immutable; CurrentBid and
// HighestBidderID are mutated only through AuctionStore.ApplyBid.
type Auction struct {
	ID        int64
	StartTime time.Time
	EndTime   time.Time
	BasePrice decimal.Decimal
	Step      decimal.Decimal

	CurrentBid      *decimal.Decimal // nil until the first accepted bid
	HighestBidderID *int64
	UpdatedAt       time.Time
}

// MinimumNextBid is the lowest amount the store predicate would accept right now.
func (a *Auction) MinimumNextBid() decimal.Decimal {
	if a.CurrentBid == nil {
		return a.BasePrice
	}
	return a.CurrentBid.Add(a.Step)
}

// InWindow reports whether t lies within [StartTime, EndTime].
func (a *Auction) InWindow(t time.Time) bool {
	return !t.Before(a.StartTime) && !t.After(a.EndTime)
}

// BidCommand is one conditional write against the auction row.
type BidCommand struct {
	AuctionID   int64
	BidderID    int64
	Amount      decimal.Decimal
	SubmittedAt time.Time
	// EnforceWindow adds start_time <= SubmittedAt <= end_time to the predicate.
	EnforceWindow bool
}

type RejectReason string

const (
	RejectNone          RejectReason = ""
	RejectBidTooLow     RejectReason = "bid_too_low"
	RejectOutsideWindow RejectReason = "outside_window"
)

type BidResult struct {
	Accepted bool
	Reason   RejectReason
	// MinimumNextBid is set on a bid_too_low rejection. It was read after the
	// failed write and may already be stale.
	MinimumNextBid *decimal.Decimal
}

// BidAttempt is a write-once ledger row.
type BidAttempt struct {
	ID          int64           `json:"id"`
	BidderID    int64           `json:"bidder_id"`
	AuctionID   int64           `json:"auction_id"`
	Amount      decimal.Decimal `json:"amount"`
	Accepted    bool            `json:"accepted"`
	Reason      RejectReason    `json:"reason,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

type CurrentBidSource string

const (
	SourceCache CurrentBidSource = "cache"
	SourceStore CurrentBidSource = "store"
)

// CachedBid is the maximum-score entry of an auction's cache collection.
type CachedBid struct {
	AuctionID   int64
	Amount      decimal.Decimal
	BidderID    int64
	SubmittedAt time.Time
}

type CurrentBid struct {
	AuctionID int64            `json:"auction_id"`
	Amount    *decimal.Decimal `json:"amount"`
	BidderID  *int64           `json:"bidder_id,omitempty"`
	At        time.Time        `json:"at"`
	// MinimumNextBid is nil when the auction's terms could not be read.
	MinimumNextBid *decimal.Decimal `json:"minimum_next_bid,omitempty"`
	Source         CurrentBidSource `json:"source"`
}

type BidEvent struct {
	Type      BidEventType    `json:"type"`
	AuctionID int64           `json:"auction_id"`
	BidderID  int64           `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

type BidEventType string

const (
	BidAccepted BidEventType = "bid_accepted"
)

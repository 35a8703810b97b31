package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-bidding/internal/domain"
	"auction-bidding/pkg/logger"

	"github.com/shopspring/decimal"
)

// BidService is the bid acceptance engine. The store decides acceptance in one
// conditional write; the cache and ledger only observe the outcome.
type BidService struct {
	auctionStore domain.AuctionStore
	bidCache     domain.CurrentBidCache
	ledger       domain.BidLedger
	eventPub     domain.EventPublisher
	windowPolicy WindowPolicy
	writeTimeout time.Duration
	now          domain.Clock
	log          logger.Logger
}

type BidServiceOption func(*BidService)

func WithWindowPolicy(policy WindowPolicy) BidServiceOption {
	return func(s *BidService) { s.windowPolicy = policy }
}

// WithWriteTimeout bounds the conditional write. Zero leaves only the caller's deadline.
func WithWriteTimeout(d time.Duration) BidServiceOption {
	return func(s *BidService) { s.writeTimeout = d }
}

func WithEventPublisher(pub domain.EventPublisher) BidServiceOption {
	return func(s *BidService) { s.eventPub = pub }
}

func WithClock(now domain.Clock) BidServiceOption {
	return func(s *BidService) { s.now = now }
}

func NewBidService(
	auctionStore domain.AuctionStore,
	bidCache domain.CurrentBidCache,
	ledger domain.BidLedger,
	log logger.Logger,
	opts ...BidServiceOption,
) *BidService {
	service := &BidService{
		auctionStore: auctionStore,
		bidCache:     bidCache,
		ledger:       ledger,
		windowPolicy: WindowUnrestricted,
		now:          time.Now,
		log:          log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// PlaceBid returns a result for every bid the store evaluated, accepted or not.
// Errors are reserved for invalid input, unknown auctions and store failures.
func (s *BidService) PlaceBid(ctx context.Context, auctionID, bidderID int64, amount decimal.Decimal) (*domain.BidResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	submittedAt := s.now()
	cmd := domain.BidCommand{
		AuctionID:     auctionID,
		BidderID:      bidderID,
		Amount:        amount,
		SubmittedAt:   submittedAt,
		EnforceWindow: s.windowPolicy == WindowEnforce,
	}

	accepted, err := s.applyBid(ctx, cmd)
	if err != nil {
		s.log.Error("Failed to apply bid", "auction_id", auctionID, "bidder_id", bidderID, "amount", amount.String(), "error", err)
		return nil, err
	}

	var result *domain.BidResult
	if accepted {
		result = &domain.BidResult{Accepted: true}
		s.onAccepted(ctx, cmd)
	} else {
		result, err = s.classifyRejection(ctx, cmd)
		if err != nil {
			return nil, err
		}
	}

	s.ledger.Append(&domain.BidAttempt{
		BidderID:    bidderID,
		AuctionID:   auctionID,
		Amount:      amount,
		Accepted:    result.Accepted,
		Reason:      result.Reason,
		SubmittedAt: submittedAt,
	})

	s.log.Debug("Bid evaluated", "auction_id", auctionID, "bidder_id", bidderID,
		"amount", amount.String(), "accepted", result.Accepted, "reason", string(result.Reason))
	return result, nil
}

func (s *BidService) applyBid(ctx context.Context, cmd domain.BidCommand) (bool, error) {
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}

	accepted, err := s.auctionStore.ApplyBid(ctx, cmd)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrInvalidBid) {
			return false, err
		}
		return false, fmt.Errorf("apply bid: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return accepted, nil
}

// onAccepted updates the read path before the caller gets its answer. Failures
// here never undo an acceptance the store already committed. The commit already
// happened, so a caller that went away must not stop the cache from following it.
func (s *BidService) onAccepted(ctx context.Context, cmd domain.BidCommand) {
	ctx = context.WithoutCancel(ctx)
	err := s.bidCache.RecordAccepted(ctx, &domain.CachedBid{
		AuctionID:   cmd.AuctionID,
		Amount:      cmd.Amount,
		BidderID:    cmd.BidderID,
		SubmittedAt: cmd.SubmittedAt,
	})
	if err != nil {
		s.log.Error("Failed to cache accepted bid", "auction_id", cmd.AuctionID, "amount", cmd.Amount.String(), "error", err)
	}

	if s.eventPub == nil {
		return
	}
	err = s.eventPub.PublishBidEvent(ctx, &domain.BidEvent{
		Type:      domain.BidAccepted,
		AuctionID: cmd.AuctionID,
		BidderID:  cmd.BidderID,
		Amount:    cmd.Amount,
		Timestamp: cmd.SubmittedAt,
	})
	if err != nil {
		s.log.Warn("Failed to publish bid event", "auction_id", cmd.AuctionID, "error", err)
	}
}

// classifyRejection runs only after a zero-row write and reads immutable terms
// only, so it cannot turn a rejection into an acceptance. The store already
// rejected the bid; if the terms cannot be read the answer stays a rejection
// with the generic reason.
func (s *BidService) classifyRejection(ctx context.Context, cmd domain.BidCommand) (*domain.BidResult, error) {
	auction, err := s.auctionStore.GetAuction(ctx, cmd.AuctionID)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return nil, err
		}
		s.log.Warn("Failed to classify rejected bid", "auction_id", cmd.AuctionID, "error", err)
		return &domain.BidResult{Reason: domain.RejectBidTooLow}, nil
	}

	result := &domain.BidResult{Reason: domain.RejectBidTooLow}
	if cmd.EnforceWindow && !auction.InWindow(cmd.SubmittedAt) {
		result.Reason = domain.RejectOutsideWindow
		return result, nil
	}

	minimum := auction.MinimumNextBid()
	result.MinimumNextBid = &minimum
	return result, nil
}

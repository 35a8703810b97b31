package services

import (
	"context"
	"fmt"
	"time"

	"auction-bidding/internal/domain"
	"auction-bidding/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// AuctionService owns auction creation and the read-only history query.
type AuctionService struct {
	auctionStore domain.AuctionStore
	bidStore     domain.BidAttemptStore
	increments   *IncrementSchedule
	now          domain.Clock
	log          logger.Logger
}

func NewAuctionService(
	auctionStore domain.AuctionStore,
	bidStore domain.BidAttemptStore,
	increments *IncrementSchedule,
	log logger.Logger,
) *AuctionService {
	return &AuctionService{
		auctionStore: auctionStore,
		bidStore:     bidStore,
		increments:   increments,
		now:          time.Now,
		log:          log,
	}
}

type CreateAuctionInput struct {
	StartTime time.Time
	EndTime   time.Time
	BasePrice decimal.Decimal
	// Step is optional; the increment schedule fills it from BasePrice.
	Step *decimal.Decimal
}

func (as *AuctionService) CreateAuction(ctx context.Context, in CreateAuctionInput) (*domain.Auction, error) {
	if in.BasePrice.IsNegative() {
		return nil, fmt.Errorf("%w: base price must not be negative", domain.ErrInvalidAuction)
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", domain.ErrInvalidAuction)
	}

	step := as.increments.StepFor(in.BasePrice)
	if in.Step != nil {
		step = *in.Step
	}
	if !step.IsPositive() {
		return nil, fmt.Errorf("%w: step must be positive", domain.ErrInvalidAuction)
	}
	if err := domain.ValidateAmount(step); err != nil {
		return nil, fmt.Errorf("%w: step: %v", domain.ErrInvalidAuction, err)
	}
	if !in.BasePrice.IsZero() {
		if err := domain.ValidateAmount(in.BasePrice); err != nil {
			return nil, fmt.Errorf("%w: base price: %v", domain.ErrInvalidAuction, err)
		}
	}

	auction := &domain.Auction{
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		BasePrice: in.BasePrice,
		Step:      step,
		UpdatedAt: as.now(),
	}

	if _, err := as.auctionStore.CreateAuction(ctx, auction); err != nil {
		return nil, err
	}

	as.log.Info("Auction created", "auction_id", auction.ID, "base_price", auction.BasePrice.String(), "step", step.String())
	return auction, nil
}

func (as *AuctionService) GetAuction(ctx context.Context, auctionID int64) (*domain.Auction, error) {
	return as.auctionStore.GetAuction(ctx, auctionID)
}

// GetBidHistory reads the ledger directly, most recent first. An empty history
// for an unknown auction is reported as ErrAuctionNotFound.
func (as *AuctionService) GetBidHistory(ctx context.Context, auctionID int64, limit int) ([]*domain.BidAttempt, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	history, err := as.bidStore.GetBidHistory(ctx, auctionID, limit)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		return history, nil
	}

	if _, err := as.auctionStore.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return []*domain.BidAttempt{}, nil
}

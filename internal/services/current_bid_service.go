package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"auction-bidding/internal/domain"
	"auction-bidding/pkg/logger"

	"github.com/shopspring/decimal"
)

// maxCachedTerms bounds the terms map; past it an arbitrary entry is evicted.
const maxCachedTerms = 10000

// auctionTerms is the immutable part of an auction, never stale once read.
type auctionTerms struct {
	step decimal.Decimal
}

// CurrentBidService serves "current highest bid" from the cache and falls back
// to the store on a miss. It never writes the cache.
type CurrentBidService struct {
	auctionStore domain.AuctionStore
	bidCache     domain.CurrentBidCache
	terms        map[int64]auctionTerms
	termsMutex   sync.RWMutex
	maxTerms     int
	log          logger.Logger
}

func NewCurrentBidService(auctionStore domain.AuctionStore, bidCache domain.CurrentBidCache, log logger.Logger) *CurrentBidService {
	return &CurrentBidService{
		auctionStore: auctionStore,
		bidCache:     bidCache,
		terms:        make(map[int64]auctionTerms),
		maxTerms:     maxCachedTerms,
		log:          log,
	}
}

func (s *CurrentBidService) GetCurrentBid(ctx context.Context, auctionID int64) (*domain.CurrentBid, error) {
	cached, err := s.bidCache.GetCurrentHighest(ctx, auctionID)
	switch {
	case err == nil:
		amount := cached.Amount
		bidderID := cached.BidderID
		current := &domain.CurrentBid{
			AuctionID: auctionID,
			Amount:    &amount,
			BidderID:  &bidderID,
			At:        cached.SubmittedAt,
			Source:    domain.SourceCache,
		}
		terms, err := s.ensureTerms(ctx, auctionID)
		if err != nil {
			s.log.Warn("Serving cached bid without terms", "auction_id", auctionID, "error", err)
			return current, nil
		}
		minimum := amount.Add(terms.step)
		current.MinimumNextBid = &minimum
		return current, nil
	case errors.Is(err, domain.ErrCacheMiss):
	default:
		s.log.Warn("Current bid cache unavailable, reading store", "auction_id", auctionID, "error", err)
	}

	return s.fromStore(ctx, auctionID)
}

func (s *CurrentBidService) fromStore(ctx context.Context, auctionID int64) (*domain.CurrentBid, error) {
	auction, err := s.auctionStore.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	s.rememberTerms(auction)

	minimum := auction.MinimumNextBid()
	return &domain.CurrentBid{
		AuctionID:      auctionID,
		Amount:         auction.CurrentBid,
		BidderID:       auction.HighestBidderID,
		At:             auction.UpdatedAt,
		MinimumNextBid: &minimum,
		Source:         domain.SourceStore,
	}, nil
}

func (s *CurrentBidService) ensureTerms(ctx context.Context, auctionID int64) (auctionTerms, error) {
	s.termsMutex.RLock()
	terms, exists := s.terms[auctionID]
	s.termsMutex.RUnlock()
	if exists {
		return terms, nil
	}

	auction, err := s.auctionStore.GetAuction(ctx, auctionID)
	if err != nil {
		return auctionTerms{}, err
	}
	return s.rememberTerms(auction), nil
}

func (s *CurrentBidService) rememberTerms(auction *domain.Auction) auctionTerms {
	terms := auctionTerms{step: auction.Step}

	s.termsMutex.Lock()
	if _, exists := s.terms[auction.ID]; !exists && len(s.terms) >= s.maxTerms {
		for id := range s.terms {
			delete(s.terms, id)
			break
		}
	}
	s.terms[auction.ID] = terms
	s.termsMutex.Unlock()
	return terms
}

// Snapshot is the message pushed to a spectator when it connects.
func (s *CurrentBidService) Snapshot(ctx context.Context, auctionID int64) (map[string]interface{}, error) {
	current, err := s.GetCurrentBid(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"type":             "current_bid",
		"auction_id":       auctionID,
		"current_bid":      current.Amount,
		"current_winner":   current.BidderID,
		"minimum_next_bid": current.MinimumNextBid,
		"source":           current.Source,
		"timestamp":        current.At.Format(time.RFC3339Nano),
	}, nil
}

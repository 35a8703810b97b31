package memory

import (
	"context"
	"sync"

	"auction-bidding/internal/domain"
)

// AuctionStore keeps auctions in process. Each auction carries its own lock so
// ApplyBid on one auction never waits on another.
type AuctionStore struct {
	mutex    sync.RWMutex
	auctions map[int64]*auctionRow
	nextID   int64
}

type auctionRow struct {
	mutex   sync.Mutex
	auction domain.Auction
}

func NewAuctionStore() *AuctionStore {
	return &AuctionStore{auctions: make(map[int64]*auctionRow)}
}

var _ domain.AuctionStore = (*AuctionStore)(nil)

func (s *AuctionStore) CreateAuction(ctx context.Context, auction *domain.Auction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.nextID++
	auction.ID = s.nextID

	row := &auctionRow{auction: *auction}
	row.auction.CurrentBid = nil
	row.auction.HighestBidderID = nil
	s.auctions[auction.ID] = row
	return auction.ID, nil
}

func (s *AuctionStore) GetAuction(ctx context.Context, auctionID int64) (*domain.Auction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := s.row(auctionID)
	if row == nil {
		return nil, domain.ErrAuctionNotFound
	}

	row.mutex.Lock()
	defer row.mutex.Unlock()
	return copyAuction(&row.auction), nil
}

// ApplyBid checks and writes under the auction's lock.
func (s *AuctionStore) ApplyBid(ctx context.Context, cmd domain.BidCommand) (bool, error) {
	if err := domain.ValidateAmount(cmd.Amount); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	row := s.row(cmd.AuctionID)
	if row == nil {
		return false, nil
	}

	row.mutex.Lock()
	defer row.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	a := &row.auction
	if cmd.EnforceWindow && !a.InWindow(cmd.SubmittedAt) {
		return false, nil
	}
	if cmd.Amount.LessThan(a.MinimumNextBid()) {
		return false, nil
	}

	amount := cmd.Amount
	bidder := cmd.BidderID
	a.CurrentBid = &amount
	a.HighestBidderID = &bidder
	a.UpdatedAt = cmd.SubmittedAt
	return true, nil
}

func (s *AuctionStore) row(auctionID int64) *auctionRow {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.auctions[auctionID]
}

func copyAuction(a *domain.Auction) *domain.Auction {
	out := *a
	if a.CurrentBid != nil {
		v := *a.CurrentBid
		out.CurrentBid = &v
	}
	if a.HighestBidderID != nil {
		v := *a.HighestBidderID
		out.HighestBidderID = &v
	}
	return &out
}

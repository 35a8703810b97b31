package memory

import (
	"context"
	"sort"
	"sync"

	"auction-bidding/internal/domain"
)

// BidAttemptStore is an append-only in-process ledger.
type BidAttemptStore struct {
	mutex    sync.RWMutex
	attempts []domain.BidAttempt
}

func NewBidAttemptStore() *BidAttemptStore {
	return &BidAttemptStore{}
}

var _ domain.BidAttemptStore = (*BidAttemptStore)(nil)

func (s *BidAttemptStore) SaveBidAttempt(ctx context.Context, attempt *domain.BidAttempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	attempt.ID = int64(len(s.attempts) + 1)
	s.attempts = append(s.attempts, *attempt)
	return nil
}

// GetBidHistory returns the newest attempts first, ordered like the SQL
// stores: submitted_at descending, then id descending.
func (s *BidAttemptStore) GetBidHistory(ctx context.Context, auctionID int64, limit int) ([]*domain.BidAttempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	var out []*domain.BidAttempt
	for i := range s.attempts {
		if s.attempts[i].AuctionID == auctionID {
			attempt := s.attempts[i]
			out = append(out, &attempt)
		}
	}
	s.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *BidAttemptStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.attempts)
}

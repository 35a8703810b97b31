package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"auction-bidding/internal/domain"
	"auction-bidding/internal/domain/domaintest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAuction(t *testing.T, repo *AuctionRepository, base, step int64) *domain.Auction {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	auction := &domain.Auction{
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		BasePrice: decimal.NewFromInt(base),
		Step:      decimal.NewFromInt(step),
		UpdatedAt: now,
	}
	_, err := repo.CreateAuction(context.Background(), auction)
	require.NoError(t, err)
	return auction
}

func TestAuctionRepository_CreateAndGet(t *testing.T) {
	repo := NewAuctionRepository(setupTestDB(t))
	created := createAuction(t, repo, 50, 5)

	got, err := repo.GetAuction(context.Background(), created.ID)
	require.NoError(t, err)

	assert.True(t, got.BasePrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, got.Step.Equal(decimal.NewFromInt(5)))
	assert.Nil(t, got.CurrentBid)
	assert.Nil(t, got.HighestBidderID)

	_, err = repo.GetAuction(context.Background(), created.ID+1000)
	assert.ErrorIs(t, err, domain.ErrAuctionNotFound)
}

func TestAuctionRepository_ApplyBid(t *testing.T) {
	repo := NewAuctionRepository(setupTestDB(t))
	auction := createAuction(t, repo, 50, 5)
	ctx := context.Background()

	bid := func(bidder, amount int64) bool {
		ok, err := repo.ApplyBid(ctx, domain.BidCommand{
			AuctionID:   auction.ID,
			BidderID:    bidder,
			Amount:      decimal.NewFromInt(amount),
			SubmittedAt: time.Now(),
		})
		require.NoError(t, err)
		return ok
	}

	assert.False(t, bid(1, 49), "below base price")
	assert.True(t, bid(1, 50), "first bid at base price")
	assert.False(t, bid(2, 54), "below current + step")
	assert.True(t, bid(2, 55))
	assert.False(t, bid(3, 55), "resubmitting a losing value")

	got, err := repo.GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentBid)
	assert.True(t, got.CurrentBid.Equal(decimal.NewFromInt(55)))
	assert.Equal(t, int64(2), *got.HighestBidderID)
}

func TestAuctionRepository_ApplyBid_Window(t *testing.T) {
	repo := NewAuctionRepository(setupTestDB(t))
	auction := createAuction(t, repo, 50, 5)

	ok, err := repo.ApplyBid(context.Background(), domain.BidCommand{
		AuctionID:     auction.ID,
		BidderID:      1,
		Amount:        decimal.NewFromInt(100),
		SubmittedAt:   auction.EndTime.Add(time.Minute),
		EnforceWindow: true,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuctionRepository_ApplyBid_Concurrent(t *testing.T) {
	repo := NewAuctionRepository(setupTestDB(t))
	auction := createAuction(t, repo, 50, 5)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []int64
	)
	for i := int64(0); i < 20; i++ {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			ok, err := repo.ApplyBid(ctx, domain.BidCommand{
				AuctionID:   auction.ID,
				BidderID:    amount,
				Amount:      decimal.NewFromInt(amount),
				SubmittedAt: time.Now(),
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				accepted = append(accepted, amount)
				mu.Unlock()
			}
		}(50 + i*3)
	}
	wg.Wait()

	got, err := repo.GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentBid)
	assert.Contains(t, accepted, got.CurrentBid.IntPart())
	for _, a := range accepted {
		assert.LessOrEqual(t, a, got.CurrentBid.IntPart())
	}
}

func TestAuctionRepository_ApplyBid_EdgeAmounts(t *testing.T) {
	repo := NewAuctionRepository(setupTestDB(t))
	ctx := context.Background()

	for _, tc := range domaintest.EdgeAmounts {
		t.Run(tc.Amount, func(t *testing.T) {
			now := time.Now().UTC().Truncate(time.Microsecond)
			auction := &domain.Auction{
				StartTime: now.Add(-time.Hour),
				EndTime:   now.Add(time.Hour),
				BasePrice: decimal.RequireFromString(domaintest.BasePrice),
				Step:      decimal.RequireFromString(domaintest.Step),
				UpdatedAt: now,
			}
			_, err := repo.CreateAuction(ctx, auction)
			require.NoError(t, err)
			ok, err := repo.ApplyBid(ctx, domain.BidCommand{
				AuctionID: auction.ID, BidderID: 1, Amount: decimal.RequireFromString(domaintest.CurrentBid), SubmittedAt: now,
			})
			require.NoError(t, err)
			require.True(t, ok)

			amount := decimal.RequireFromString(tc.Amount)
			ok, err = repo.ApplyBid(ctx, domain.BidCommand{AuctionID: auction.ID, BidderID: 2, Amount: amount, SubmittedAt: now})
			if tc.Invalid {
				assert.ErrorIs(t, err, domain.ErrInvalidBid)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Accepted, ok)

			got, err := repo.GetAuction(ctx, auction.ID)
			require.NoError(t, err)
			if tc.Accepted {
				assert.True(t, got.CurrentBid.Equal(amount), "stored exactly as bid")
			}
		})
	}
}

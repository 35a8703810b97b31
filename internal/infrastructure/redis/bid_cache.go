package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"auction-bidding/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// maxCachedBids bounds the per-auction collection; only the top entry is read.
const maxCachedBids = 16

// RedisBidCache keeps one sorted set per auction. Score is the bid amount, the
// member encodes "<submitted unix nanos>:<bidder id>:<exact amount>".
type RedisBidCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBidCache(client *redis.Client, ttl time.Duration) *RedisBidCache {
	return &RedisBidCache{client: client, ttl: ttl}
}

var _ domain.CurrentBidCache = (*RedisBidCache)(nil)

func bidsKey(auctionID int64) string {
	return fmt.Sprintf("auction:%d:bids", auctionID)
}

// RecordAccepted adds the bid and slides the key's expiry to ttl from now.
func (r *RedisBidCache) RecordAccepted(ctx context.Context, bid *domain.CachedBid) error {
	key := bidsKey(bid.AuctionID)
	member := fmt.Sprintf("%d:%d:%s", bid.SubmittedAt.UnixNano(), bid.BidderID, bid.Amount.String())

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, &redis.Z{Score: bid.Amount.InexactFloat64(), Member: member})
		pipe.ZRemRangeByRank(ctx, key, 0, -(maxCachedBids + 1))
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record accepted bid for auction %d: %w", bid.AuctionID, err)
	}
	return nil
}

func (r *RedisBidCache) GetCurrentHighest(ctx context.Context, auctionID int64) (*domain.CachedBid, error) {
	entries, err := r.client.ZRevRangeWithScores(ctx, bidsKey(auctionID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("read current bid for auction %d: %w", auctionID, err)
	}
	if len(entries) == 0 {
		return nil, domain.ErrCacheMiss
	}

	member, ok := entries[0].Member.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected cache member %v", entries[0].Member)
	}
	return parseMember(auctionID, member, entries[0].Score)
}

func parseMember(auctionID int64, member string, score float64) (*domain.CachedBid, error) {
	parts := strings.SplitN(member, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid cache member: %s", member)
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cache member timestamp: %w", err)
	}

	bidderID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cache member bidder: %w", err)
	}

	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		amount = decimal.NewFromFloat(score)
	}

	return &domain.CachedBid{
		AuctionID:   auctionID,
		Amount:      amount,
		BidderID:    bidderID,
		SubmittedAt: time.Unix(0, nanos),
	}, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"auction-bidding/internal/domain"
	"auction-bidding/internal/infrastructure/memory"
	redisinfra "auction-bidding/internal/infrastructure/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// recordingLedger captures appended attempts synchronously.
type recordingLedger struct {
	mutex    sync.Mutex
	attempts []*domain.BidAttempt
}

func (l *recordingLedger) Append(attempt *domain.BidAttempt) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.attempts = append(l.attempts, attempt)
}

func (l *recordingLedger) all() []*domain.BidAttempt {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]*domain.BidAttempt(nil), l.attempts...)
}

type recordingPublisher struct {
	mutex  sync.Mutex
	events []*domain.BidEvent
	err    error
}

func (p *recordingPublisher) PublishBidEvent(_ context.Context, event *domain.BidEvent) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type failingCache struct{}

func (failingCache) RecordAccepted(context.Context, *domain.CachedBid) error {
	return errors.New("redis: connection refused")
}

func (failingCache) GetCurrentHighest(context.Context, int64) (*domain.CachedBid, error) {
	return nil, errors.New("redis: connection refused")
}

// brokenStore fails every write; blockingStore waits for the context.
type brokenStore struct {
	*memory.AuctionStore
	err error
}

func (s brokenStore) ApplyBid(context.Context, domain.BidCommand) (bool, error) {
	return false, s.err
}

type blockingStore struct {
	*memory.AuctionStore
}

func (blockingStore) ApplyBid(ctx context.Context, _ domain.BidCommand) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

type logEntry struct {
	level string
	msg   string
	kv    []interface{}
}

type recordingLogger struct {
	mutex   sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, kv []interface{}) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, kv: kv})
}

func (l *recordingLogger) Info(msg string, kv ...interface{})  { l.add("info", msg, kv) }
func (l *recordingLogger) Error(msg string, kv ...interface{}) { l.add("error", msg, kv) }
func (l *recordingLogger) Debug(msg string, kv ...interface{}) { l.add("debug", msg, kv) }
func (l *recordingLogger) Warn(msg string, kv ...interface{})  { l.add("warn", msg, kv) }
func (l *recordingLogger) Fatal(msg string, kv ...interface{}) { l.add("fatal", msg, kv) }

func (l *recordingLogger) count(level string) int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

type fixture struct {
	store  *memory.AuctionStore
	mr     *miniredis.Miniredis
	cache  *redisinfra.RedisBidCache
	ledger *recordingLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return &fixture{
		store:  memory.NewAuctionStore(),
		mr:     mr,
		cache:  redisinfra.NewRedisBidCache(client, 180*time.Second),
		ledger: &recordingLedger{},
	}
}

// auction creates an auction open for the next hour with the given current
// bid already accepted (empty string for none).
func (f *fixture) auction(t *testing.T, base, step, current string) int64 {
	t.Helper()
	now := time.Now()
	a := &domain.Auction{
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		BasePrice: dec(base),
		Step:      dec(step),
		UpdatedAt: now,
	}
	id, err := f.store.CreateAuction(context.Background(), a)
	require.NoError(t, err)

	if current != "" {
		ok, err := f.store.ApplyBid(context.Background(), domain.BidCommand{
			AuctionID: id, BidderID: 1, Amount: dec(current), SubmittedAt: now,
		})
		require.NoError(t, err)
		require.True(t, ok, fmt.Sprintf("seeding current bid %s", current))
	}
	return id
}

// unreadableStore rejects every write and then cannot read the auction back.
type unreadableStore struct {
	*memory.AuctionStore
}

func (unreadableStore) ApplyBid(context.Context, domain.BidCommand) (bool, error) {
	return false, nil
}

func (unreadableStore) GetAuction(_ context.Context, auctionID int64) (*domain.Auction, error) {
	return nil, fmt.Errorf("get auction %d: %w: %w", auctionID, domain.ErrStoreUnavailable, errors.New("i/o timeout"))
}

// disconnectingStore commits the bid and then cancels the caller's context,
// as a client hanging up right after the write would.
type disconnectingStore struct {
	*memory.AuctionStore
	cancel context.CancelFunc
}

func (s disconnectingStore) ApplyBid(ctx context.Context, cmd domain.BidCommand) (bool, error) {
	ok, err := s.AuctionStore.ApplyBid(ctx, cmd)
	s.cancel()
	return ok, err
}

package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"auction-bidding/internal/domain"
	"auction-bidding/pkg/logger"
)

// LedgerWriter appends bid attempts in the background. Append never blocks:
// when the queue is full the attempt is dropped and counted. Sink failures are
// logged and dropped, there is no retry.
type LedgerWriter struct {
	sinks        []domain.BidAttemptSink
	queue        chan *domain.BidAttempt
	writeTimeout time.Duration
	log          logger.Logger

	wg        sync.WaitGroup
	mutex     sync.RWMutex
	closed    bool
	closeOnce sync.Once

	enqueued atomic.Int64
	written  atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

type LedgerStats struct {
	Enqueued int64
	Written  int64
	Failed   int64
	Dropped  int64
	Pending  int
}

func NewLedgerWriter(workers, queueSize int, writeTimeout time.Duration, log logger.Logger, sinks ...domain.BidAttemptSink) *LedgerWriter {
	if workers <= 0 {
		workers = 1
	}
	w := &LedgerWriter{
		sinks:        sinks,
		queue:        make(chan *domain.BidAttempt, queueSize),
		writeTimeout: writeTimeout,
		log:          log,
	}

	w.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go w.run()
	}
	return w
}

var _ domain.BidLedger = (*LedgerWriter)(nil)

func (w *LedgerWriter) Append(attempt *domain.BidAttempt) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if w.closed {
		w.dropped.Add(1)
		w.log.Warn("Ledger closed, dropping bid attempt", "auction_id", attempt.AuctionID, "bidder_id", attempt.BidderID)
		return
	}

	select {
	case w.queue <- attempt:
		w.enqueued.Add(1)
	default:
		w.dropped.Add(1)
		w.log.Warn("Ledger queue full, dropping bid attempt", "auction_id", attempt.AuctionID, "bidder_id", attempt.BidderID)
	}
}

func (w *LedgerWriter) run() {
	defer w.wg.Done()
	for attempt := range w.queue {
		for _, sink := range w.sinks {
			if err := w.write(sink, attempt); err != nil {
				w.failed.Add(1)
				w.log.Error("Failed to append bid attempt", "auction_id", attempt.AuctionID,
					"bidder_id", attempt.BidderID, "accepted", attempt.Accepted, "error", err)
				continue
			}
			w.written.Add(1)
		}
	}
}

func (w *LedgerWriter) write(sink domain.BidAttemptSink, attempt *domain.BidAttempt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ledger sink panic: %v", r)
		}
	}()

	ctx := context.Background()
	if w.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.writeTimeout)
		defer cancel()
	}
	return sink.SaveBidAttempt(ctx, attempt)
}

func (w *LedgerWriter) Stats() LedgerStats {
	return LedgerStats{
		Enqueued: w.enqueued.Load(),
		Written:  w.written.Load(),
		Failed:   w.failed.Load(),
		Dropped:  w.dropped.Load(),
		Pending:  len(w.queue),
	}
}

// Close stops accepting attempts and waits for the queue to drain or ctx to end.
func (w *LedgerWriter) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		w.mutex.Lock()
		w.closed = true
		close(w.queue)
		w.mutex.Unlock()
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

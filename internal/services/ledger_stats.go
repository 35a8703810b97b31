package services

import (
	"context"
	"sync"

	"auction-bidding/pkg/logger"

	"github.com/robfig/cron/v3"
)

type ledgerStatsSource interface {
	Stats() LedgerStats
}

// LedgerStatsReporter logs the ledger writer's counters on a cron schedule and
// warns when attempts were dropped since the previous report.
type LedgerStatsReporter struct {
	cron     *cron.Cron
	source   ledgerStatsSource
	schedule string
	log      logger.Logger

	mutex       sync.Mutex
	lastDropped int64
	lastFailed  int64
}

func NewLedgerStatsReporter(source ledgerStatsSource, schedule string, log logger.Logger) *LedgerStatsReporter {
	return &LedgerStatsReporter{
		cron:     cron.New(cron.WithSeconds()),
		source:   source,
		schedule: schedule,
		log:      log,
	}
}

func (r *LedgerStatsReporter) Start(ctx context.Context) error {
	r.log.Info("Starting ledger stats reporter", "schedule", r.schedule)

	_, err := r.cron.AddFunc(r.schedule, r.report)
	if err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

func (r *LedgerStatsReporter) Stop() error {
	r.log.Info("Stopping ledger stats reporter")
	<-r.cron.Stop().Done()
	return nil
}

func (r *LedgerStatsReporter) report() {
	stats := r.source.Stats()

	r.mutex.Lock()
	newDropped := stats.Dropped - r.lastDropped
	newFailed := stats.Failed - r.lastFailed
	r.lastDropped = stats.Dropped
	r.lastFailed = stats.Failed
	r.mutex.Unlock()

	r.log.Info("Ledger stats",
		"enqueued", stats.Enqueued,
		"written", stats.Written,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
		"pending", stats.Pending)

	if newDropped > 0 || newFailed > 0 {
		r.log.Warn("Ledger lost bid attempts since last report", "dropped", newDropped, "failed", newFailed)
	}
}

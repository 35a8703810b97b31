package storage

import (
	"context"
	"fmt"

	"auction-bidding/internal/config"
	"auction-bidding/internal/domain"
	"auction-bidding/internal/infrastructure/memory"
	"auction-bidding/internal/infrastructure/mysql"
	"auction-bidding/internal/infrastructure/postgres"
	"auction-bidding/pkg/logger"
	"auction-bidding/pkg/utils"
)

// Stores is the durable side of the kernel for the configured driver.
type Stores struct {
	Auctions domain.AuctionStore
	Bids     domain.BidAttemptStore
	close    func()
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// RequireShared rejects drivers whose state lives inside one process. A
// service that only reads what another process writes needs a shared store.
func RequireShared(driver string) error {
	if driver == config.DriverMemory {
		return fmt.Errorf("storage driver %q is not shared between processes", driver)
	}
	return nil
}

func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*Stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverMySQL:
		db, err := utils.InitializeMysql(ctx, cfg.MySQL)
		if err != nil {
			return nil, err
		}
		log.Info("Connected to MySQL")
		return &Stores{
			Auctions: mysql.NewMySQLAuctionRepository(db),
			Bids:     mysql.NewMySQLBidRepository(db),
			close: func() {
				if err := db.Close(); err != nil {
					log.Error("Failed to close MySQL connection", "error", err)
				}
			},
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		log.Info("Connected to Postgres")
		return &Stores{
			Auctions: postgres.NewAuctionRepository(pool),
			Bids:     postgres.NewBidRepository(pool),
			close:    pool.Close,
		}, nil

	case config.DriverMemory:
		log.Warn("Using in-memory storage, state is lost on restart and not shared between processes")
		return &Stores{
			Auctions: memory.NewAuctionStore(),
			Bids:     memory.NewBidAttemptStore(),
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

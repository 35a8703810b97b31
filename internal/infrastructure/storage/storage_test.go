package storage

import (
	"context"
	"testing"

	"auction-bidding/internal/config"
	"auction-bidding/internal/infrastructure/memory"
	"auction-bidding/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.DriverMemory}}

	stores, err := Open(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &memory.AuctionStore{}, stores.Auctions)
	assert.IsType(t, &memory.BidAttemptStore{}, stores.Bids)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}

	_, err := Open(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestRequireShared(t *testing.T) {
	assert.Error(t, RequireShared(config.DriverMemory))
	assert.NoError(t, RequireShared(config.DriverMySQL))
	assert.NoError(t, RequireShared(config.DriverPostgres))
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"auction-bidding/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AuctionRepository implements domain.AuctionStore using PostgreSQL.
type AuctionRepository struct {
	pool *Pool
}

func NewAuctionRepository(pool *Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

var _ domain.AuctionStore = (*AuctionRepository)(nil)

func (r *AuctionRepository) CreateAuction(ctx context.Context, auction *domain.Auction) (int64, error) {
	query := `
		INSERT INTO auctions (start_time, end_time, base_price, step_price, updated_at)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		auction.StartTime,
		auction.EndTime,
		auction.BasePrice.String(),
		auction.Step.String(),
		auction.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create auction: %w: %w", domain.ErrStoreUnavailable, err)
	}

	auction.ID = id
	return id, nil
}

func (r *AuctionRepository) GetAuction(ctx context.Context, auctionID int64) (*domain.Auction, error) {
	query := `
		SELECT id, start_time, end_time, base_price, step_price, current_bid, highest_bidder_id, updated_at
		FROM auctions
		WHERE id = $1
	`

	var (
		auction    domain.Auction
		currentBid decimal.NullDecimal
		bidderID   *int64
	)

	err := r.pool.QueryRow(ctx, query, auctionID).Scan(
		&auction.ID,
		&auction.StartTime,
		&auction.EndTime,
		&auction.BasePrice,
		&auction.Step,
		&currentBid,
		&bidderID,
		&auction.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("get auction %d: %w: %w", auctionID, domain.ErrStoreUnavailable, err)
	}

	if currentBid.Valid {
		auction.CurrentBid = &currentBid.Decimal
	}
	auction.HighestBidderID = bidderID
	return &auction, nil
}

// ApplyBid is a single conditional UPDATE. Under READ COMMITTED a writer that
// waited on the row lock re-evaluates the WHERE clause against the committed row.
// Amounts travel as text and are cast server side.
func (r *AuctionRepository) ApplyBid(ctx context.Context, cmd domain.BidCommand) (bool, error) {
	if err := domain.ValidateAmount(cmd.Amount); err != nil {
		return false, err
	}
	query := `
		UPDATE auctions
		SET current_bid = $1::numeric, highest_bidder_id = $2, updated_at = $3
		WHERE id = $4
		  AND ((current_bid IS NULL AND $1::numeric >= base_price)
		       OR $1::numeric >= current_bid + step_price)
	`
	if cmd.EnforceWindow {
		query += ` AND $3::timestamptz BETWEEN start_time AND end_time`
	}

	tag, err := r.pool.Exec(ctx, query, cmd.Amount.String(), cmd.BidderID, cmd.SubmittedAt, cmd.AuctionID)
	if err != nil {
		return false, fmt.Errorf("apply bid to auction %d: %w: %w", cmd.AuctionID, domain.ErrStoreUnavailable, err)
	}
	return tag.RowsAffected() == 1, nil
}

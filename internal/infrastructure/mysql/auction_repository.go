package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auction-bidding/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

var _ domain.AuctionStore = (*MySQLAuctionRepository)(nil)

func (r *MySQLAuctionRepository) CreateAuction(ctx context.Context, auction *domain.Auction) (int64, error) {
	query := `
        INSERT INTO auctions (start_time, end_time, base_price, step_price, current_bid, highest_bidder_id, updated_at)
        VALUES (?, ?, ?, ?, NULL, NULL, ?)
    `
	res, err := r.db.ExecContext(ctx, query,
		auction.StartTime, auction.EndTime,
		auction.BasePrice, auction.Step, auction.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("create auction: %w: %w", domain.ErrStoreUnavailable, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create auction: %w: %w", domain.ErrStoreUnavailable, err)
	}
	auction.ID = id
	return id, nil
}

func (r *MySQLAuctionRepository) GetAuction(ctx context.Context, auctionID int64) (*domain.Auction, error) {
	query := `
        SELECT id, start_time, end_time, base_price, step_price, current_bid, highest_bidder_id, updated_at
        FROM auctions WHERE id = ?
    `

	var (
		auction    domain.Auction
		currentBid decimal.NullDecimal
		bidderID   sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(
		&auction.ID, &auction.StartTime, &auction.EndTime,
		&auction.BasePrice, &auction.Step,
		&currentBid, &bidderID, &auction.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("get auction %d: %w: %w", auctionID, domain.ErrStoreUnavailable, err)
	}

	if currentBid.Valid {
		auction.CurrentBid = &currentBid.Decimal
	}
	if bidderID.Valid {
		auction.HighestBidderID = &bidderID.Int64
	}
	return &auction, nil
}

// ApplyBid compares and writes in one UPDATE. InnoDB holds the row lock while the
// WHERE clause is evaluated, so concurrent bids on the same auction serialize and
// each one is checked against the value the previous one committed.
func (r *MySQLAuctionRepository) ApplyBid(ctx context.Context, cmd domain.BidCommand) (bool, error) {
	// The CAST below is lossless only for amounts ValidateAmount accepts.
	if err := domain.ValidateAmount(cmd.Amount); err != nil {
		return false, err
	}
	query := `
        UPDATE auctions
        SET current_bid = ?, highest_bidder_id = ?, updated_at = ?
        WHERE id = ?
          AND ((current_bid IS NULL AND CAST(? AS DECIMAL(18,2)) >= base_price)
               OR CAST(? AS DECIMAL(18,2)) >= current_bid + step_price)
    `
	args := []interface{}{
		cmd.Amount, cmd.BidderID, cmd.SubmittedAt,
		cmd.AuctionID,
		cmd.Amount, cmd.Amount,
	}
	if cmd.EnforceWindow {
		query += `  AND ? BETWEEN start_time AND end_time`
		args = append(args, cmd.SubmittedAt)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("apply bid to auction %d: %w: %w", cmd.AuctionID, domain.ErrStoreUnavailable, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply bid to auction %d: %w: %w", cmd.AuctionID, domain.ErrStoreUnavailable, err)
	}
	return rows == 1, nil
}

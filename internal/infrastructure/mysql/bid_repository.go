package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"auction-bidding/internal/domain"
)

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

var _ domain.BidAttemptStore = (*MySQLBidRepository)(nil)

func (r *MySQLBidRepository) SaveBidAttempt(ctx context.Context, attempt *domain.BidAttempt) error {
	query := `
        INSERT INTO bid_attempts (bidder_id, auction_id, bid_price, is_success, reason, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	res, err := r.db.ExecContext(ctx, query,
		attempt.BidderID, attempt.AuctionID, attempt.Amount,
		attempt.Accepted, string(attempt.Reason), attempt.SubmittedAt)
	if err != nil {
		return fmt.Errorf("save bid attempt: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		attempt.ID = id
	}
	return nil
}

// GetBidHistory returns attempts most recent first.
func (r *MySQLBidRepository) GetBidHistory(ctx context.Context, auctionID int64, limit int) ([]*domain.BidAttempt, error) {
	query := `
        SELECT id, bidder_id, auction_id, bid_price, is_success, reason, created_at
        FROM bid_attempts
        WHERE auction_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID, limit)
	if err != nil {
		return nil, fmt.Errorf("get bid history: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var attempts []*domain.BidAttempt
	for rows.Next() {
		var attempt domain.BidAttempt
		var reason string

		err := rows.Scan(&attempt.ID, &attempt.BidderID, &attempt.AuctionID,
			&attempt.Amount, &attempt.Accepted, &reason, &attempt.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("scan bid attempt: %w", err)
		}

		attempt.Reason = domain.RejectReason(reason)
		attempts = append(attempts, &attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get bid history: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return attempts, nil
}

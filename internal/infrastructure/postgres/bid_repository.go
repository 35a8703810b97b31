package postgres

import (
	"context"
	"fmt"

	"auction-bidding/internal/domain"
)

// BidRepository implements domain.BidAttemptStore using PostgreSQL.
type BidRepository struct {
	pool *Pool
}

func NewBidRepository(pool *Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

var _ domain.BidAttemptStore = (*BidRepository)(nil)

func (r *BidRepository) SaveBidAttempt(ctx context.Context, attempt *domain.BidAttempt) error {
	query := `
		INSERT INTO bid_attempts (bidder_id, auction_id, bid_price, is_success, reason, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		attempt.BidderID,
		attempt.AuctionID,
		attempt.Amount.String(),
		attempt.Accepted,
		string(attempt.Reason),
		attempt.SubmittedAt,
	).Scan(&attempt.ID)
	if err != nil {
		return fmt.Errorf("save bid attempt: %w", err)
	}
	return nil
}

func (r *BidRepository) GetBidHistory(ctx context.Context, auctionID int64, limit int) ([]*domain.BidAttempt, error) {
	query := `
		SELECT id, bidder_id, auction_id, bid_price, is_success, reason, created_at
		FROM bid_attempts
		WHERE auction_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, auctionID, limit)
	if err != nil {
		return nil, fmt.Errorf("get bid history: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var attempts []*domain.BidAttempt
	for rows.Next() {
		var attempt domain.BidAttempt
		var reason string

		if err := rows.Scan(
			&attempt.ID,
			&attempt.BidderID,
			&attempt.AuctionID,
			&attempt.Amount,
			&attempt.Accepted,
			&reason,
			&attempt.SubmittedAt,
		); err != nil {
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

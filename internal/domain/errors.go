package domain

import "errors"

var (
	// ErrInvalidBid is returned before touching the store, see ValidateAmount.
	ErrInvalidBid = errors.New("invalid bid amount")

	ErrAuctionNotFound = errors.New("auction not found")

	// ErrStoreUnavailable wraps any failure of the durable store itself.
	ErrStoreUnavailable = errors.New("auction store unavailable")

	ErrCacheMiss = errors.New("current bid not cached")

	ErrInvalidAuction = errors.New("invalid auction terms")
)

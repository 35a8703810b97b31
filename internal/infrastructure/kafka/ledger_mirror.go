package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"auction-bidding/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// messageWriter is the part of *kafka.Writer the mirror needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LedgerMirror publishes every bid attempt to a topic, keyed by auction id so
// one auction's attempts stay ordered within a partition.
type LedgerMirror struct {
	writer messageWriter
}

func NewLedgerMirror(brokers []string, topic string) *LedgerMirror {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &LedgerMirror{writer: writer}
}

var _ domain.BidAttemptSink = (*LedgerMirror)(nil)

type bidAttemptMessage struct {
	BidderID    int64           `json:"bidder_id"`
	AuctionID   int64           `json:"auction_id"`
	Amount      decimal.Decimal `json:"amount"`
	Accepted    bool            `json:"accepted"`
	Reason      string          `json:"reason,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

func (m *LedgerMirror) SaveBidAttempt(ctx context.Context, attempt *domain.BidAttempt) error {
	data, err := json.Marshal(bidAttemptMessage{
		BidderID:    attempt.BidderID,
		AuctionID:   attempt.AuctionID,
		Amount:      attempt.Amount,
		Accepted:    attempt.Accepted,
		Reason:      string(attempt.Reason),
		SubmittedAt: attempt.SubmittedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal bid attempt: %w", err)
	}

	return m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(attempt.AuctionID, 10)),
		Value: data,
		Time:  attempt.SubmittedAt,
	})
}

func (m *LedgerMirror) Close() error {
	return m.writer.Close()
}

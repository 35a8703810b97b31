package websocket

import (
	"context"

	"auction-bidding/internal/domain"
)

type WebSocketNotifier struct {
	connManager domain.ConnectionManager
}

func NewWebSocketNotifier(connManager domain.ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

var _ domain.AuctionBroadcaster = (*WebSocketNotifier)(nil)

func (n *WebSocketNotifier) BroadcastToAuction(ctx context.Context, auctionID int64, message interface{}) error {
	return n.connManager.BroadcastToAuction(auctionID, message)
}

package websocket

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"auction-bidding/internal/domain"
	"auction-bidding/pkg/logger"
	"auction-bidding/pkg/utils"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SnapshotProvider builds the message a spectator receives on connect.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, auctionID int64) (map[string]interface{}, error)
}

// WebSocketHandler serves read-only spectator connections. Bids are placed
// over HTTP; the socket only carries snapshots, bid updates and ping/pong.
type WebSocketHandler struct {
	snapshots   SnapshotProvider
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewWebSocketHandler(snapshots SnapshotProvider, connManager domain.ConnectionManager, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		snapshots:   snapshots,
		connManager: connManager,
		log:         log,
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	auctionID, err := strconv.ParseInt(mux.Vars(r)["auctionID"], 10, 64)
	if err != nil || auctionID <= 0 {
		http.Error(w, "invalid auction id", http.StatusBadRequest)
		return
	}

	snapshot, err := h.snapshots.Snapshot(r.Context(), auctionID)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			http.Error(w, "auction not found", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to load auction snapshot", "auction_id", auctionID, "error", err)
		http.Error(w, "auction unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewWebSocketConnection(conn, auctionID)
	if err := wsConn.Send(snapshot); err != nil {
		h.log.Error("Failed to send snapshot", "auction_id", auctionID, "error", err)
		wsConn.Close()
		return
	}

	if err := h.connManager.RegisterConnection(wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		wsConn.Close()
		return
	}

	go h.handleMessages(wsConn)
}

func (h *WebSocketHandler) handleMessages(conn *WebSocketConnection) {
	defer func() {
		h.connManager.UnregisterConnection(conn)
		conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("Spectator connection ended", "conn_id", conn.ConnID(), "error", err)
			}
			return
		}

		msgType, _ := msg["type"].(string)
		switch msgType {
		case "ping":
			conn.Send(map[string]string{"type": "pong"})
		default:
			conn.Send(map[string]string{"type": "error", "message": "unsupported message type"})
		}
	}
}

type WebSocketConnection struct {
	conn      *websocket.Conn
	connID    string
	auctionID int64
	// gorilla connections allow one concurrent writer.
	writeMutex sync.Mutex
}

func NewWebSocketConnection(conn *websocket.Conn, auctionID int64) *WebSocketConnection {
	return &WebSocketConnection{
		conn:      conn,
		connID:    utils.GenerateID("conn"),
		auctionID: auctionID,
	}
}

// Send writes pre-encoded JSON as-is and encodes anything else.
func (wsc *WebSocketConnection) Send(message interface{}) error {
	wsc.writeMutex.Lock()
	defer wsc.writeMutex.Unlock()

	if raw, ok := message.([]byte); ok {
		return wsc.conn.WriteMessage(websocket.TextMessage, raw)
	}
	return wsc.conn.WriteJSON(message)
}

func (wsc *WebSocketConnection) Close() error {
	return wsc.conn.Close()
}

func (wsc *WebSocketConnection) ConnID() string {
	return wsc.connID
}

func (wsc *WebSocketConnection) AuctionID() int64 {
	return wsc.auctionID
}

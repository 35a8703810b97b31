package websocket

import (
	"encoding/json"
	"sync"

	"auction-bidding/internal/domain"
	"auction-bidding/pkg/logger"
)

type ConnectionManager struct {
	connections map[int64]map[string]domain.WebSocketConnection // auctionID -> connID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[int64]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

var _ domain.ConnectionManager = (*ConnectionManager)(nil)

func (cm *ConnectionManager) RegisterConnection(conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	auctionID := conn.AuctionID()
	if cm.connections[auctionID] == nil {
		cm.connections[auctionID] = make(map[string]domain.WebSocketConnection)
	}
	cm.connections[auctionID][conn.ConnID()] = conn

	cm.log.Info("Connection registered", "conn_id", conn.ConnID(), "auction_id", auctionID)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	auctionID := conn.AuctionID()
	if auctionConns, exists := cm.connections[auctionID]; exists {
		delete(auctionConns, conn.ConnID())
		if len(auctionConns) == 0 {
			delete(cm.connections, auctionID)
		}
	}

	cm.log.Info("Connection unregistered", "conn_id", conn.ConnID(), "auction_id", auctionID)
	return nil
}

func (cm *ConnectionManager) GetConnectionsForAuction(auctionID int64) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []domain.WebSocketConnection
	for _, conn := range cm.connections[auctionID] {
		connections = append(connections, conn)
	}
	return connections
}

// BroadcastToAuction marshals once and sends the same bytes to every
// spectator. A failed send is logged and skipped.
func (cm *ConnectionManager) BroadcastToAuction(auctionID int64, message interface{}) error {
	connections := cm.GetConnectionsForAuction(auctionID)
	if len(connections) == 0 {
		return nil
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		if err := conn.Send(messageBytes); err != nil {
			cm.log.Error("Failed to send message", "conn_id", conn.ConnID(), "auction_id", auctionID, "error", err)
		}
	}

	cm.log.Debug("Broadcast to auction", "auction_id", auctionID, "connections", len(connections))
	return nil
}

func (cm *ConnectionManager) CloseAll() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for auctionID, auctionConns := range cm.connections {
		for connID, conn := range auctionConns {
			if err := conn.Close(); err != nil {
				cm.log.Error("Failed to close connection", "conn_id", connID, "auction_id", auctionID, "error", err)
			}
		}
		delete(cm.connections, auctionID)
	}

	cm.log.Info("All spectator connections closed")
	return nil
}

package ws

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"crisis-alert-service/internal/domain"
)

// Connection wraps websocket.Conn with metadata
type Connection struct {
	ID       string
	Conn     *websocket.Conn
	UserID   string
	LastSeen time.Time
}

// Manager is the in-app sink: it tracks live websocket connections per user
// and pushes alerts to all of them. Implements domain.InAppSink.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{} // userID -> set of connections
}

func NewManager() *Manager {
	return &Manager{
		connections: make(map[string]map[*Connection]struct{}),
	}
}

// Add registers a connection for a user
func (m *Manager) Add(userID string, conn *websocket.Conn) *Connection {
	c := &Connection{ID: uuid.NewString(), Conn: conn, UserID: userID, LastSeen: time.Now()}

	m.mu.Lock()
	if _, ok := m.connections[userID]; !ok {
		m.connections[userID] = make(map[*Connection]struct{})
	}
	m.connections[userID][c] = struct{}{}
	m.mu.Unlock()

	log.Printf("WS connected: %s (conn %s)", userID, c.ID)
	return c
}

// Remove disconnects and removes a connection
func (m *Manager) Remove(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conns, ok := m.connections[c.UserID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(m.connections, c.UserID)
		}
	}
	_ = c.Conn.Close()
	log.Printf("WS disconnected: %s (conn %s)", c.UserID, c.ID)
}

// wsAlert is the minimal alert view sent to websocket clients
type wsAlert struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	Type        domain.AlertType     `json:"type"`
	Priority    domain.AlertPriority `json:"priority"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	Actions     []domain.AlertAction `json:"actions,omitempty"`
	IsEmergency bool                 `json:"is_emergency"`
	RequiresAck bool                 `json:"requires_ack"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Publish sends the alert to all live connections of its user.
// Publication is best-effort; a dead connection is pruned, never retried.
func (m *Manager) Publish(alert *domain.Alert) {
	msg := wsAlert{
		ID:          alert.ID,
		UserID:      alert.UserID,
		Type:        alert.Type,
		Priority:    alert.Priority,
		Title:       alert.Title,
		Message:     alert.Message,
		Actions:     alert.Actions,
		IsEmergency: alert.IsEmergency,
		RequiresAck: alert.RequiresAck,
		CreatedAt:   alert.CreatedAt,
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if conns, ok := m.connections[alert.UserID]; ok {
		for c := range conns {
			if err := c.Conn.WriteJSON(msg); err != nil {
				log.Printf("⚠️ failed WS send to %s: %v", alert.UserID, err)
				go m.Remove(c)
			}
		}
	}
}

// Heartbeat pings all connections periodically to keep them alive
func (m *Manager) Heartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	for range ticker.C {
		m.mu.RLock()
		for _, conns := range m.connections {
			for c := range conns {
				if time.Since(c.LastSeen) > 2*interval {
					go m.Remove(c)
					continue
				}
				_ = c.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			}
		}
		m.mu.RUnlock()
	}
}

package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Admin message types
const (
	MsgSubmissionReceived MessageType = "submission_received"
	MsgAdminConnected     MessageType = "admin_connected"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans out back-office events to connected admin dashboards
type Hub struct {
	conns map[*Connection]bool
	mu    sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message
}

// Connection represents a WebSocket connection
type Connection struct {
	AdminID string
	Send    chan []byte
	Hub     *Hub
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn] = true
			count := len(h.conns)
			h.mu.Unlock()
			log.Printf("Admin %s connected (%d dashboards)", conn.AdminID, count)
			h.welcome(conn, count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if h.conns[conn] {
				delete(h.conns, conn)
				close(conn.Send)
				log.Printf("Admin %s disconnected", conn.AdminID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, _ := json.Marshal(msg)
			h.mu.RLock()
			for conn := range h.conns {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// welcome acknowledges a new dashboard so it knows the feed is live
func (h *Hub) welcome(conn *Connection, count int) {
	payload, _ := json.Marshal(map[string]interface{}{
		"adminId":    conn.AdminID,
		"dashboards": count,
	})
	data, _ := json.Marshal(&Message{Type: MsgAdminConnected, Payload: payload})
	select {
	case conn.Send <- data:
	default:
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Count returns the number of connected dashboards
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// BroadcastToAdmins sends a message to every admin dashboard (implements service.Broadcaster)
func (h *Hub) BroadcastToAdmins(msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("WebSocket payload for %s not encodable: %v", msgType, err)
		return
	}
	select {
	case h.broadcast <- &Message{Type: MessageType(msgType), Payload: data}:
	default:
		log.Printf("WebSocket broadcast queue full, dropping %s", msgType)
	}
}

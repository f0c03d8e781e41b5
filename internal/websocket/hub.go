// Package websocket runs the live status feed. Attached UI shells receive
// sync status snapshots, queue notifications and incident updates as they
// happen, and can trigger a sync pass over the same connection.
package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/argussec/argusgo/internal/models"
	"github.com/argussec/argusgo/internal/notify"
)

// Event is the envelope every feed message travels in
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type renameRequest struct {
	client *Client
	newID  string
}

// Hub maintains the set of attached shells and fans events out to them
type Hub struct {
	// Registered clients map: DeviceID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	rename     chan renameRequest
	broadcast  chan []byte

	// Snapshot supplies the current sync status for freshly connected
	// shells. Set before Run.
	Snapshot func() models.SyncStatus

	// SyncTrigger runs when a shell sends a sync command. Set before Run.
	SyncTrigger func()

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rename:     make(chan renameRequest),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.DeviceID != "" {
				// A reconnecting shell displaces its old connection; the
				// old pumps exit on their own once the socket closes
				if old, ok := h.clients[client.DeviceID]; ok && old != client {
					old.conn.Close()
				}
				h.clients[client.DeviceID] = client
				log.Printf("📱 Shell connected: %s", client.DeviceID)
			}
			h.mu.Unlock()
			if h.Snapshot != nil {
				client.sendEvent(Event{Type: "status", Payload: h.Snapshot()})
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if client.DeviceID != "" {
				// Only the connection that owns the slot may vacate it
				if cur, ok := h.clients[client.DeviceID]; ok && cur == client {
					delete(h.clients, client.DeviceID)
					close(client.send)
					log.Printf("📴 Shell disconnected: %s", client.DeviceID)
				}
			}
			h.mu.Unlock()

		case req := <-h.rename:
			h.mu.Lock()
			if cur, ok := h.clients[req.client.DeviceID]; ok && cur == req.client {
				delete(h.clients, req.client.DeviceID)
			}
			if old, ok := h.clients[req.newID]; ok && old != req.client {
				old.conn.Close()
			}
			req.client.DeviceID = req.newID
			h.clients[req.newID] = req.client
			log.Printf("📱 Shell identified: %s", req.newID)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for id, client := range h.clients {
				select {
				case client.send <- message:
				default:
					log.Printf("⚠️ Feed buffer full, dropping message for %s", id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast fans an event out to every attached shell
func (h *Hub) Broadcast(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Println("⚠️ Feed backlog full, dropping event")
	}
}

// BroadcastStatus pushes a sync status snapshot to all shells
func (h *Hub) BroadcastStatus(st models.SyncStatus) {
	h.Broadcast(Event{Type: "status", Payload: st})
}

// Notify implements notify.Notifier so queue notifications reach the shells
func (h *Hub) Notify(n notify.Notification) {
	h.Broadcast(Event{Type: "notification", Payload: n})
}

// SendToDevice sends an event to a specific shell
func (h *Hub) SendToDevice(deviceID string, evt Event) bool {
	h.mu.RLock()
	client, ok := h.clients[deviceID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return false
	}

	select {
	case client.send <- data:
		return true
	default:
		// Buffer full or client dead
		return false
	}
}

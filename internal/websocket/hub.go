package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"sentinel/internal/engine/actors"
)

// Hub maintains the set of active clients and broadcasts feed events to all
// of them. Feed updates are broadcast, not targeted: every connected client
// renders the same feed.
type Hub struct {
	// Registered clients.
	Clients map[*Client]bool

	// Inbound events to fan out to every client.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Mutex to protect concurrent access to the clients map.
	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[*Client]bool),
	}
}

// PublishEvent implements actors.EventPublisher. Events that cannot be
// queued are dropped rather than blocking the engine.
func (h *Hub) PublishEvent(event *actors.FeedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("WebSocket Hub: Failed to encode event %q: %v", event.Type, err)
		return
	}
	select {
	case h.Broadcast <- payload:
	default:
		log.Printf("WebSocket Hub: Broadcast queue full, dropping event %q", event.Type)
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("WebSocket Hub started.")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client] = true
			log.Printf("WebSocket Client registered. Total connections: %d", len(h.Clients))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				log.Printf("WebSocket Client unregistered. Total connections: %d", len(h.Clients))
			}
			h.mu.Unlock()

		case payload := <-h.Broadcast:
			h.mu.RLock()
			for client := range h.Clients {
				select {
				case client.Send <- payload:
				default:
					// Slow consumer; drop this event for this client.
					log.Printf("WebSocket Hub: Client send buffer full, dropping event")
				}
			}
			h.mu.RUnlock()
		}
	}
}

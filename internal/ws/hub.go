// Package ws pushes live order events to shop dashboards. Each location
// has its own room; staff subscribe to their location, owners to any.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event represents a WebSocket message to be broadcast.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// locationEvent routes an event to a single location's room.
type locationEvent struct {
	LocationID uuid.UUID
	Event      Event
}

// Hub maintains the set of active clients and broadcasts order events to
// them, grouped by location.
type Hub struct {
	// Registered clients by location ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *locationEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *locationEvent, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.locationID] == nil {
				h.rooms[client.locationID] = make(map[*Client]bool)
			}
			h.rooms[client.locationID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.locationID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.locationID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.LocationID]

			// Marshal once, fan out to the whole room
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.LocationID], client)
					if len(h.rooms[event.LocationID]) == 0 {
						delete(h.rooms, event.LocationID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToLocation sends an event to all clients subscribed to a
// specific location. This is the public API for handlers.
func (h *Hub) BroadcastToLocation(locationID uuid.UUID, event Event) {
	h.broadcast <- &locationEvent{
		LocationID: locationID,
		Event:      event,
	}
}

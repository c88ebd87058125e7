package ws

import (
	"encoding/json"
	"sync"
)

// RoomAll receives every broadcast regardless of station.
const RoomAll = "all"

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// roomEvent is an internal struct for routing events to station rooms
type roomEvent struct {
	Room  string // empty means every room
	Event Event
}

// Hub maintains the set of active kitchen displays and broadcasts events to
// them. Displays join the room for their station, or "all" for a full-board
// view.
type Hub struct {
	// Registered clients by room
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *roomEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			if event.Room == "" {
				for room := range h.rooms {
					h.sendToRoomLocked(room, message)
				}
			} else {
				h.sendToRoomLocked(event.Room, message)
			}
			h.mu.Unlock()
		}
	}
}

// sendToRoomLocked delivers message to every client in room. Callers hold
// h.mu.
func (h *Hub) sendToRoomLocked(room string, message []byte) {
	for client := range h.rooms[room] {
		select {
		case client.send <- message:
		default:
			// Client's send buffer is full, close and unregister
			close(client.send)
			delete(h.rooms[room], client)
			if len(h.rooms[room]) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// BroadcastToStation sends an event to displays watching one station's room.
func (h *Hub) BroadcastToStation(station string, event Event) {
	h.broadcast <- &roomEvent{Room: station, Event: event}
}

// BroadcastAll sends an event to every connected display.
func (h *Hub) BroadcastAll(event Event) {
	h.broadcast <- &roomEvent{Event: event}
}

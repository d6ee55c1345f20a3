package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Client is the part of a websocket connection the hub needs.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub fans order and stock events out to connected admin dashboards.
type Hub struct {
	Clients    map[Client]bool
	Register   chan Client
	Unregister chan Client
	Broadcast  chan []byte
	done       chan struct{}
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[Client]bool),
		Register:   make(chan Client),
		Unregister: make(chan Client),
		Broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.Println("New WS Client Connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Add hands conn to the hub. Once the hub has stopped conn is closed instead
// and Add reports false.
func (h *Hub) Add(conn Client) bool {
	select {
	case h.Register <- conn:
		return true
	case <-h.done:
		conn.Close()
		return false
	}
}

// Remove detaches conn; after the hub has stopped every client is already closed.
func (h *Hub) Remove(conn Client) {
	select {
	case h.Unregister <- conn:
	case <-h.done:
	}
}

// Publish encodes payload and queues it for broadcast. It never blocks the
// caller: when the queue is full or the hub has stopped the event is dropped.
func (h *Hub) Publish(payload map[string]interface{}) {
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: failed to encode event: %v", err)
		return
	}

	select {
	case <-h.done:
	case h.Broadcast <- msg:
	default:
		log.Printf("ws: broadcast queue full, dropping %v event", payload["type"])
	}
}

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Package live mirrors document-store changes into consumer-visible
// snapshots: the staff dashboard sees the whole collection ordered by
// orderDate descending, a customer sees a single order. Consumers receive
// the current snapshot on attach and a new one on every mutation without
// re-issuing a query.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/printgenie/orderflow/internal/models"
)

// Event is one message pushed to attached consumers.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EventOrders carries the full staff order list.
const EventOrders = "orders"

// Hub maintains the set of attached staff clients and fans each collection
// snapshot out to all of them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// done is closed when Run returns so attach and detach never block on
	// a hub that no longer drains its channels.
	done chan struct{}

	// last is replayed to newly attached clients so the first message a
	// consumer sees is the current snapshot, not the next mutation.
	mu   sync.RWMutex
	last []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// attach registers a client, reporting false if the hub has stopped.
func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// detach removes a client. Safe to call after the hub has stopped.
func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run starts the hub's main loop and blocks until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.mu.RLock()
			last := h.last
			h.mu.RUnlock()
			if last != nil {
				select {
				case client.send <- last:
				default:
				}
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.broadcast:
			h.mu.Lock()
			h.last = message
			h.mu.Unlock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and drop it.
					close(client.send)
					delete(h.clients, client)
				}
			}

		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		}
	}
}

// BroadcastOrders pushes a new staff snapshot to every attached client.
func (h *Hub) BroadcastOrders(orders []models.Order) error {
	payload, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	message, err := json.Marshal(Event{Type: EventOrders, Payload: payload})
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return errors.New("hub stopped")
	default:
	}
	select {
	case h.broadcast <- message:
		return nil
	case <-h.done:
		return errors.New("hub stopped")
	}
}

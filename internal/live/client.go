package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/printgenie/orderflow/internal/models"
	"github.com/printgenie/orderflow/internal/store"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // staff access is validated before the upgrade
	},
}

// Client is a single attached websocket consumer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump waits for disconnects; consumers never send application
// messages on this feed.
func (c *Client) readPump() {
	defer func() {
		c.hub.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "error", err)
			}
			break
		}
	}
}

// writePump pumps snapshots from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeStaffWS upgrades the request and attaches the caller to the staff
// order feed. Authentication happens before this is reached.
func ServeStaffWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	if !hub.attach(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ServeOrderWS streams one order's snapshots to a customer. A vanished or
// unknown order is observed as a null snapshot, which the tracking page
// renders as "not found". If the watch cannot attach, the connection stays
// open and silent; the caller applies its own timeout policy.
func ServeOrderWS(orderStore store.OrderStore, id string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The request context does not end for a hijacked connection, so
	// disconnects are observed by the read loop instead.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	sub, err := orderStore.WatchOrder(ctx, id)
	if err != nil {
		// Perpetual loading, not a distinct error message.
		slog.Error("order watch could not attach", "orderId", id, "error", err)
		keepAlive(ctx, conn, ticker)
		return
	}
	defer sub.Stop()

	for {
		select {
		case o, ok := <-sub.Snapshots:
			if !ok {
				return
			}
			payload, err := json.Marshal(o)
			if err != nil {
				slog.Error("failed to encode order snapshot", "orderId", id, "error", err)
				continue
			}
			message, err := json.Marshal(Event{Type: "order", Payload: payload})
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// keepAlive pings until the peer goes away or ctx ends.
func keepAlive(ctx context.Context, conn *websocket.Conn, ticker *time.Ticker) {
	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// View pumps collection snapshots from the document store into the hub.
type View struct {
	store store.OrderStore
	hub   *Hub
	log   *slog.Logger
}

func NewView(orderStore store.OrderStore, hub *Hub, log *slog.Logger) *View {
	return &View{store: orderStore, hub: hub, log: log}
}

// Run attaches to the store's change stream and forwards every snapshot to
// attached consumers until ctx is canceled. If the subscription cannot be
// established, consumers are left in a loading state; nothing is retried.
func (v *View) Run(ctx context.Context) error {
	sub, err := v.store.Watch(ctx)
	if err != nil {
		v.log.Error("live order view could not attach", "error", err)
		<-ctx.Done()
		return nil
	}
	defer sub.Stop()

	for {
		select {
		case snapshot, ok := <-sub.Snapshots:
			if !ok {
				// Stream ended upstream; consumers keep their last state.
				v.log.Error("live order view stream ended")
				<-ctx.Done()
				return nil
			}
			if snapshot == nil {
				snapshot = []models.Order{}
			}
			if err := v.hub.BroadcastOrders(snapshot); err != nil {
				v.log.Error("failed to broadcast order snapshot", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

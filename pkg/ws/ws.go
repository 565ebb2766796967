// Package ws is the admin live feed: a WebSocket hub that pushes JSON
// events to every connected dashboard.
//
//	hub := ws.NewHub()
//	go hub.Run(ctx)
//
//	router.Get("/api/admin/ws", "admin.ws", func(w http.ResponseWriter, r *http.Request) {
//	    ws.Upgrade(w, r, hub)
//	})
//
//	hub.Publish(events.NewOrderEvent(events.OrderCreated, order))
//
// Clients only listen; anything they send is discarded.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/perennia/storefront/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// AllowOrigins accepts requests without an Origin header and those whose
// Origin is listed. "*" allows everything.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

// ─── Client ───────────────────────────────────────────────────────────────────

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump only services control frames; it ends when the peer goes away.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
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
				logger.Warn("ws: unexpected close", "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// ─── Hub ──────────────────────────────────────────────────────────────────────

// Hub owns the connected clients. All state changes happen on the Run
// goroutine.
type Hub struct {
	clients    map[*client]bool
	count      atomic.Int64
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It closes every client when ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			close(h.done)
			return

		case c := <-h.register:
			h.clients[c] = true
			h.count.Store(int64(len(h.clients)))
			logger.Info("ws: client connected", "total", len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				logger.Info("ws: client disconnected", "total", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// A client this far behind is cut off.
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

// Publish encodes v as JSON and queues it for every client. It never blocks;
// when the hub is saturated the message is dropped.
func (h *Hub) Publish(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("ws: encode message", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logger.Warn("ws: broadcast buffer full, message dropped")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// ─── Upgrade ─────────────────────────────────────────────────────────────────

// Upgrade turns the request into a WebSocket registered with hub.
func Upgrade(w http.ResponseWriter, r *http.Request, hub *Hub) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("ws: upgrade failed", "error", err)
		return
	}
	c := &client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case hub.register <- c:
	case <-hub.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

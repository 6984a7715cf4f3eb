// Package monitor streams the traffic sent to the board to WebSocket clients.
package monitor

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"k40nano/protocol"
)

// Message is the event envelope sent to clients. Clients switch on Type.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// PacketEvent describes one packet accepted by the board
type PacketEvent struct {
	Index int    `json:"index"`
	Hex   string `json:"hex"`
	Text  string `json:"text"`
}

// PositionEvent reports the head position in mils
type PositionEvent struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Mode string `json:"mode"`
}

const (
	// sendBuffer is the number of events queued per client before new events
	// are dropped
	sendBuffer = 256
	writeWait  = 2 * time.Second
)

// client owns a connection. Only its writePump writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// queue hands b to the writer without blocking. It reports false when the
// event was dropped.
func (c *client) queue(b []byte) bool {
	select {
	case c.send <- b:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *client) writePump() {
	defer c.close()
	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// Hub broadcasts events to every connected client
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	packets int
	dropped atomic.Int64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// local tool; allow all origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades requests to WebSockets and registers them with the hub
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := h.add(conn)

		// Incoming messages are ignored, reading only detects disconnects
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(c)
				return
			}
		}
	})
}

// NewServeMux serves the hub at /ws
func NewServeMux(h *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", h.Handler())
	return mux
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns the number of events discarded because a client fell behind
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func (h *Hub) add(conn *websocket.Conn) *client {
	c := newClient(conn)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	go c.writePump()
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Broadcast queues msg for every client and never blocks on the network. A
// client whose queue is full misses the event. Clients that fail a write
// are closed and removed by their read loop.
func (h *Hub) Broadcast(msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.queue(b) {
			h.dropped.Add(1)
		}
	}
}

// PublishPacket broadcasts a framed packet. It matches the connection's
// packet callback.
func (h *Hub) PublishPacket(packet []byte) {
	h.mu.Lock()
	h.packets++
	index := h.packets
	h.mu.Unlock()

	event := PacketEvent{Index: index, Hex: hex.EncodeToString(packet)}
	if payload, err := protocol.DecodePacket(packet); err == nil {
		event.Text = string(payload)
	}
	h.Broadcast(Message{Type: "packet", Data: event})
}

// PublishPosition broadcasts the head position
func (h *Hub) PublishPosition(x, y int, mode string) {
	h.Broadcast(Message{Type: "position", Data: PositionEvent{X: x, Y: y, Mode: mode}})
}

// Package ws wraps a gorilla WebSocket connection in the transport
// surface the admission layer binds sessions to.
package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrSendBufferFull reports that a frame was dropped because the
// client's outbound buffer was full. The client is closed when this is
// returned: a peer that cannot keep up loses the connection.
var ErrSendBufferFull = errors.New("ws: send buffer full")

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Permissive default; deployments restrict origins through
		// SetCheckOrigin, wired from the allowed_origins config list.
		return true
	},
}

// Upgrade upgrades an HTTP request to a WebSocket connection.
func Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}

// SetCheckOrigin sets a custom origin checker for the WebSocket upgrader.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// Client is one WebSocket connection. Outbound frames go through a
// buffered send channel drained by WritePump; inbound payloads and the
// connection close are delivered through registered callbacks.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	mu      sync.Mutex
	closed  bool
	onData  func(data []byte)
	onClose func()
}

// NewClient wraps an upgraded connection. Callers start WritePump
// before sending and ReadPump once callbacks are attached.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// SetOnData registers the callback invoked with each inbound payload.
func (c *Client) SetOnData(fn func(data []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onData = fn
}

// SetOnClose registers the callback invoked once when the connection
// stops reading.
func (c *Client) SetOnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = fn
}

// Send marshals v to JSON and queues it for delivery. Frames queued
// before Close are still flushed by the write pump.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, drop the connection
		c.closeLocked()
		return ErrSendBufferFull
	}
}

// Close stops the client. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// WritePump pumps queued frames to the WebSocket connection and keeps
// it alive with pings. Run in its own goroutine; it owns all writes.
func (c *Client) WritePump() {
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
				// Close drained the queue; say goodbye
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Each frame goes out separately so the remote end can
			// JSON-parse frame by frame
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.send)
			for i := 0; i < n; i++ {
				queued := <-c.send
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump pumps inbound payloads to the data callback until the
// connection drops, then closes the client and fires the close
// callback exactly once. Run in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Close()
		c.mu.Lock()
		onClose := c.onClose
		c.mu.Unlock()
		if onClose != nil {
			onClose()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		c.mu.Lock()
		onData := c.onData
		c.mu.Unlock()
		if onData != nil {
			onData(data)
		}
	}
}

package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chathub/logger"
)

const writeDeadline = 5 * time.Second

// Client is one live connection to the gateway. A user may hold several
// at once, each registered separately. All writes go through Send and
// are drained by a single writer goroutine; gorilla/websocket forbids
// concurrent writes.
type Client struct {
	ConnID string
	UserID string // empty while the connection is unauthenticated

	ws   *websocket.Conn
	Send chan []byte

	done     chan struct{}
	doneOnce sync.Once
}

// NewClient builds the connection record. ws may be nil in tests; the
// writer goroutine is simply never started then.
func NewClient(connID, userID string, ws *websocket.Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Client{
		ConnID: connID,
		UserID: userID,
		ws:     ws,
		Send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
}

// enqueue offers a payload to the send queue without blocking. A full
// queue means a slow consumer; the payload is dropped and the caller may
// log it. Delivery is fire-and-forget by contract.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// WritePump drains Send onto the socket until the client is closed or a
// write fails. Run it in its own goroutine per connection.
func (c *Client) WritePump() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.Send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("write failed, stopping pump")
				return
			}
		}
	}
}

// Close stops the writer; safe to call more than once.
func (c *Client) Close() {
	c.doneOnce.Do(func() { close(c.done) })
}

// internal/hub/client.go
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	// sendBuffer bounds the per-socket outbound queue. A client that cannot
	// drain this many messages is dropped rather than allowed to stall the
	// fan-out.
	sendBuffer = 64

	writeTimeout = 5 * time.Second

	// helloGrace is how long an unauthenticated socket may sit before the
	// hub closes it.
	helloGrace = 10 * time.Second
)

// Client is one live socket. A user may hold several concurrently; each
// gets its own send queue and writer goroutine so a slow socket never
// blocks the game queues.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	remote string

	userID   uuid.UUID
	username string
	authed   bool

	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newClient(h *Hub, conn *websocket.Conn, remote string) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue queues an already-marshaled frame for the writer. Returns false
// when the client is gone or its queue is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		c.hub.logger.Warnf("dropping slow socket for user %s", c.userID)
		c.close(websocket.StatusPolicyViolation, "send queue overflow")
		return false
	}
}

// sendJSON marshals and enqueues a message.
func (c *Client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.hub.logger.Errorf("marshal socket message: %v", err)
		return
	}
	c.enqueue(data)
}

func (c *Client) sendError(clientSeq int64, code, message string) {
	c.sendJSON(ErrorEvent{Type: EvtError, ClientSeq: clientSeq, Code: code, Message: message})
}

// writeLoop drains the send queue onto the wire. One per client.
func (c *Client) writeLoop() {
	for {
		select {
		case data := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) close(status websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close(status, reason)
	})
}

package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exproctor/internal/relay"
)

// Client adapts a gorilla connection to relay.Peer. Frames are queued on a
// bounded channel and written by a single goroutine (WritePump), which keeps
// per-connection FIFO order and the one-writer rule gorilla requires.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan relay.Frame
	done chan struct{}
	once sync.Once
	log  zerolog.Logger
}

// NewClient wraps conn with an outbound queue of queueSize frames.
func NewClient(conn *websocket.Conn, queueSize int, log zerolog.Logger) *Client {
	if queueSize <= 0 {
		queueSize = 64
	}
	id := uuid.New().String()
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan relay.Frame, queueSize),
		done: make(chan struct{}),
		log:  log.With().Str("conn_id", id).Logger(),
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// Send queues f without blocking.
func (c *Client) Send(f relay.Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

// Close stops the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// Conn exposes the underlying connection to the read loop.
func (c *Client) Conn() *websocket.Conn { return c.conn }

// PrepareRead applies the read limit and keepalive handling.
func (c *Client) PrepareRead() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// WritePump drains the queue until Close is called or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f := <-c.send:
			if err := WriteTyped(c.conn, f); err != nil {
				c.log.Debug().Err(err).Msg("Write failed")
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// flush writes whatever is still queued, such as a final exam_expelled.
func (c *Client) flush() {
	for {
		select {
		case f := <-c.send:
			if err := WriteTyped(c.conn, f); err != nil {
				return
			}
		default:
			return
		}
	}
}

package signaling

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kfalicov/super-swash-bros/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP payloads fit comfortably.
	maxMessageSize = 64 * 1024
)

// Client wraps a single websocket connection (one participant).
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// SessionID is bound to this connection for its lifetime and is never
	// reused across reconnects.
	SessionID string

	// RoomCode is the room this session currently occupies, empty when
	// lobby-less. Owned by the hub goroutine.
	RoomCode string

	// Send is the buffered outbound path. The write pump drains it; the hub
	// closes it on unregister.
	Send chan any
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		SessionID: sessionID,
		Send:      make(chan any, 256),
	}
}

// ReadPump pumps commands from the websocket connection to the hub.
//
// Runs in a per-connection goroutine; all reads happen here so there is at
// most one reader per connection. A malformed frame is logged and dropped
// without terminating the connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "session", c.SessionID, "err", err)
			}
			break
		}

		var req protocol.Request
		if err := json.Unmarshal(data, &req); err != nil {
			slog.Warn("dropping malformed message", "session", c.SessionID, "err", err)
			continue
		}

		c.hub.Inbound <- Command{Client: c, Req: req}
	}
}

// WritePump pumps messages from the hub to the websocket connection and
// keeps the transport alive with periodic pings.
//
// Runs in a per-connection goroutine; all writes happen here so there is at
// most one writer per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				slog.Warn("websocket write error", "session", c.SessionID, "err", err)
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

// trySend queues a message without blocking the hub. A participant whose
// buffer is full is a stalled consumer; its connection is torn down rather
// than letting it stall broadcasts to the rest of the room.
func (c *Client) trySend(msg any) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		if c.conn != nil {
			c.conn.Close()
		}
		return false
	}
}

package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the per-frame write deadline.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before it is
	// considered dead; pings go out at pingPeriod to keep it alive.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxFrameSize caps inbound frames. Attachments travel base64-encoded
	// inside send-message frames, so the cap is well above text size.
	maxFrameSize = 10 << 20

	// sendQueueSize is the per-client outbound buffer. A client that falls
	// this far behind is dropped.
	sendQueueSize = 64
)

// Client is one authenticated websocket connection. Reads and writes run on
// separate goroutines (ReadPump / WritePump); the hub reaches the connection
// only through the buffered send channel.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	send chan Envelope

	mu     sync.Mutex
	chats  map[string]struct{}
	closed bool
}

// NewClient wraps an upgraded connection for the given authenticated user.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan Envelope, sendQueueSize),
		chats:  make(map[string]struct{}),
	}
}

// UserID returns the authenticated account id behind this connection.
func (c *Client) UserID() string { return c.userID }

// track records a joined chat for send-side membership checks and
// disconnect cleanup.
func (c *Client) track(chatID string) {
	c.mu.Lock()
	c.chats[chatID] = struct{}{}
	c.mu.Unlock()
}

// inChat reports whether the client has joined the chat on this connection.
func (c *Client) inChat(chatID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.chats[chatID]
	return ok
}

// joined returns the chats this client is a member of.
func (c *Client) joined() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.chats))
	for id := range c.chats {
		out = append(out, id)
	}
	return out
}

// enqueue queues an envelope for delivery. It returns false when the buffer
// is full (slow consumer); envelopes for an already-closed client are
// silently discarded.
func (c *Client) enqueue(env Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// close shuts the send channel exactly once, which ends WritePump.
func (c *Client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// ReadPump reads frames off the connection and dispatches them to the hub
// until the connection drops. It must run on its own goroutine; on return
// the client is detached from every room.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.RemoveClient(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn().Err(err).Str("user_id", c.userID).Msg("websocket read failed")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.hub.errorTo(c, "malformed frame")
			continue
		}
		c.dispatch(ctx, env)
	}
}

// dispatch routes one inbound envelope to the matching hub handler.
func (c *Client) dispatch(ctx context.Context, env Envelope) {
	switch env.Event {
	case EventJoinChat, EventSendMessage, EventStartTyping, EventStopTyping:
		relayEvents.WithLabelValues(env.Event).Inc()
	default:
		relayEvents.WithLabelValues("unknown").Inc()
	}

	switch env.Event {
	case EventJoinChat:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == "" {
			c.hub.errorTo(c, "join-chat needs a chatId")
			return
		}
		c.hub.HandleJoin(ctx, c, p.ChatID)

	case EventSendMessage:
		var p SendPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == "" {
			c.hub.errorTo(c, "send-message needs a chatId")
			return
		}
		c.hub.HandleSend(ctx, c, p)

	case EventStartTyping, EventStopTyping:
		var p TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == "" {
			return
		}
		c.hub.HandleTyping(ctx, c, p.ChatID, env.Event == EventStartTyping)

	default:
		c.hub.errorTo(c, "unknown event: "+env.Event)
	}
}

// WritePump drains the send channel onto the connection and keeps it alive
// with pings. It must run on its own goroutine and exits when the send
// channel closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Package client is a WebSocket client for the relay. It correlates
// responses to requests through the requestId field so callers can run
// several requests concurrently over one connection.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"crew-relay/errors"
)

const requestTimeout = 10 * time.Second

// Client owns a single relay connection. Frames carrying a known
// requestId resolve the matching pending call; everything else
// (broadcast updates, unsolicited pushes) goes to OnPush when set.
type Client struct {
	conn *websocket.Conn
	log  *slog.Logger

	mu      sync.Mutex
	pending map[string]chan json.RawMessage
	closed  bool

	// OnPush receives every frame without a pending requestId. Set it
	// before the first request; called from the read loop goroutine.
	OnPush func(frame json.RawMessage)
}

// Dial connects to the relay WebSocket endpoint, e.g.
// ws://localhost:8080/ws, and starts the read loop.
func Dial(ctx context.Context, url string, log *slog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	c := &Client{
		conn:    conn,
		log:     log,
		pending: make(map[string]chan json.RawMessage),
	}
	go c.readLoop()
	return c, nil
}

// Request sends a frame and blocks until the relay answers with the
// same requestId, the context ends, or the timeout elapses. The frame
// is a JSON object under construction; the requestId is injected here.
func (c *Client) Request(ctx context.Context, frame map[string]any) (json.RawMessage, error) {
	requestID := uuid.NewString()
	frame["requestId"] = requestID

	answer := make(chan json.RawMessage, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.ErrConnectionClosed
	}
	c.pending[requestID] = answer
	err := c.conn.WriteJSON(frame)
	c.mu.Unlock()
	if err != nil {
		c.forget(requestID)
		return nil, fmt.Errorf("failed to send frame: %w", err)
	}
	defer c.forget(requestID)

	select {
	case raw, ok := <-answer:
		if !ok {
			return nil, errors.ErrConnectionClosed
		}
		return raw, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(requestTimeout):
		return nil, errors.ErrRequestTimeout
	}
}

// Send writes a frame without waiting for an answer.
func (c *Client) Send(frame any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.ErrConnectionClosed
	}
	return c.conn.WriteJSON(frame)
}

func (c *Client) forget(requestID string) {
	c.mu.Lock()
	delete(c.pending, requestID)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown()
			return
		}
		var envelope struct {
			RequestID string `json:"requestId"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			c.log.Warn("discarding unreadable frame", "error", err)
			continue
		}

		c.mu.Lock()
		answer, pending := c.pending[envelope.RequestID]
		if pending {
			delete(c.pending, envelope.RequestID)
		}
		c.mu.Unlock()

		if pending {
			answer <- json.RawMessage(raw)
			continue
		}
		if c.OnPush != nil {
			c.OnPush(json.RawMessage(raw))
		}
	}
}

// shutdown fails every pending call so Request never hangs on a dead
// connection longer than it has to.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, answer := range c.pending {
		close(answer)
		delete(c.pending, id)
	}
}

// Close tears the connection down; pending requests fail.
func (c *Client) Close() error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil
	}
	err := c.conn.Close()
	c.shutdown()
	return err
}

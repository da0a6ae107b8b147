package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// httpConnection implements mcp.Connection for HTTP-based communication.
// The MCP SDK expects a bidirectional connection model, so this adapter maps
// request/response flow and notification delivery onto separate buffered
// channels. Responses with a pending waiter go back on the originating POST;
// everything else flows to the notification channel and out over SSE.
type httpConnection struct {
	sessionID   string
	reqChan     chan jsonrpc.Message
	notifyChan  chan jsonrpc.Message // Delivery channel for SSE streams
	closed      chan struct{}
	ready       chan struct{} // Signals when Server.Connect() has started reading (buffered, size 1)
	readyOnce   sync.Once
	mu          sync.Mutex
	closedFlag  bool
	pendingReqs map[jsonrpc.ID]chan jsonrpc.Message // Map request ID to response channel
	pendingMu   sync.Mutex
}

func (c *httpConnection) Read(ctx context.Context) (jsonrpc.Message, error) {
	// Signal readiness on the first read, when Server.Connect starts reading
	c.readyOnce.Do(func() {
		select {
		case c.ready <- struct{}{}:
		default:
		}
	})

	select {
	case msg := <-c.reqChan:
		return msg, nil
	case <-c.closed:
		return nil, fmt.Errorf("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write implements mcp.Connection.Write.
// Responses matching a pending request are routed to that request's waiter;
// notifications and unmatched responses go to the notification channel. The
// split keeps unrelated notifications away from callers awaiting a specific
// request/response exchange, and it is what lets legacy sessions receive
// responses over their event stream instead of the POST body.
func (c *httpConnection) Write(ctx context.Context, msg jsonrpc.Message) error {
	c.mu.Lock()
	closed := c.closedFlag
	c.mu.Unlock()

	if closed {
		return fmt.Errorf("connection closed")
	}

	if resp, ok := msg.(*jsonrpc.Response); ok && resp.ID != (jsonrpc.ID{}) {
		c.pendingMu.Lock()
		respChan, exists := c.pendingReqs[resp.ID]
		c.pendingMu.Unlock()

		if exists {
			// Re-check closed before writing to avoid racing Close()
			c.mu.Lock()
			closed = c.closedFlag
			c.mu.Unlock()
			if closed {
				return fmt.Errorf("connection closed")
			}

			select {
			case respChan <- msg:
				return nil
			case <-c.closed:
				return fmt.Errorf("connection closed")
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	c.mu.Lock()
	closed = c.closedFlag
	c.mu.Unlock()
	if closed {
		return fmt.Errorf("connection closed")
	}

	select {
	case c.notifyChan <- msg:
		return nil
	case <-c.closed:
		return fmt.Errorf("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements mcp.Connection.Close.
// The data channels are never closed: an HTTP handler can be racing a send
// into them, and a send on a closed channel panics. Everything selects on the
// closed signal instead, so a message in flight during teardown is dropped
// rather than crashing the process.
func (c *httpConnection) Close() error {
	c.mu.Lock()
	if c.closedFlag {
		c.mu.Unlock()
		return nil
	}
	c.closedFlag = true
	close(c.closed)
	c.mu.Unlock()

	c.pendingMu.Lock()
	c.pendingReqs = nil
	c.pendingMu.Unlock()

	return nil
}

// SessionID implements mcp.Connection.SessionID.
func (c *httpConnection) SessionID() string {
	return c.sessionID
}

// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/syncfleet/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4 * 1024 * 1024 // 4 MB, sync responses carry error lists
)

// wsConn wraps one websocket connection with a write lock and the
// pending-call table that pairs responses to their requests by
// correlation id. Both hub ends use it.
type wsConn struct {
	id string
	ws *websocket.Conn

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan protocol.Envelope
	dropped   bool
}

func newWSConn(ws *websocket.Conn) *wsConn {
	ws.SetReadLimit(maxMessageSize)
	return &wsConn{
		id:      uuid.New().String(),
		ws:      ws,
		pending: make(map[string]chan protocol.Envelope),
	}
}

// write sends one envelope. The lock serializes writers; gorilla
// connections allow only one concurrent writer.
func (c *wsConn) write(env protocol.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.ws.WriteJSON(env); err != nil {
		return fmt.Errorf("write %s: %w", env.Type, err)
	}
	return nil
}

// call sends a request and waits for the response with the same
// correlation id. A timeout surfaces as ErrCallTimeout; a dropped
// connection fails the call with ErrConnectionClosed.
func (c *wsConn) call(ctx context.Context, req protocol.Request, timeout time.Duration) (protocol.Envelope, error) {
	correlationID := protocol.NewCorrelationID()
	env, err := protocol.Seal(correlationID, req)
	if err != nil {
		return protocol.Envelope{}, err
	}

	ch := make(chan protocol.Envelope, 1)
	c.pendingMu.Lock()
	if c.dropped {
		c.pendingMu.Unlock()
		return protocol.Envelope{}, ErrConnectionClosed
	}
	c.pending[correlationID] = ch
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, correlationID)
		c.pendingMu.Unlock()
	}()

	if err := c.write(env); err != nil {
		return protocol.Envelope{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return protocol.Envelope{}, ErrConnectionClosed
		}
		return resp, nil
	case <-timer.C:
		return protocol.Envelope{}, fmt.Errorf("%w: %s after %s", ErrCallTimeout, req.WireName(), timeout)
	case <-ctx.Done():
		return protocol.Envelope{}, ctx.Err()
	}
}

// notify sends a fire-and-forget message.
func (c *wsConn) notify(msg protocol.Message) error {
	env, err := protocol.Seal(protocol.NewCorrelationID(), msg)
	if err != nil {
		return err
	}
	return c.write(env)
}

// reply answers an inbound request under its correlation id.
func (c *wsConn) reply(correlationID string, msg protocol.Message) error {
	env, err := protocol.Seal(correlationID, msg)
	if err != nil {
		return err
	}
	return c.write(env)
}

// deliver routes an inbound response envelope to the call waiting on
// its correlation id. It reports whether a caller was waiting.
func (c *wsConn) deliver(env protocol.Envelope) bool {
	c.pendingMu.Lock()
	ch, ok := c.pending[env.CorrelationID]
	if ok {
		delete(c.pending, env.CorrelationID)
	}
	c.pendingMu.Unlock()

	if !ok {
		return false
	}
	ch <- env
	return true
}

// drop fails every in-flight call. Calls started before a drop fail
// rather than being replayed on the next connection.
func (c *wsConn) drop() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	if c.dropped {
		return
	}
	c.dropped = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

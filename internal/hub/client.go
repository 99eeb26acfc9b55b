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

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/protocol"
)

// defaultBackoff is the reconnect schedule used when none is
// configured. The last delay repeats once the schedule is exhausted.
var defaultBackoff = []time.Duration{
	time.Second,
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
	time.Minute,
}

// ClientConfig configures the worker end of the hub.
type ClientConfig struct {
	// URL is the orchestrator's websocket endpoint.
	URL string

	// Name and Secret are the worker's connect-time credential.
	Name   string
	Secret string

	// Backoff is the ordered reconnect delay schedule. The schedule
	// resets after every successful connect.
	Backoff []time.Duration

	// CallTimeout bounds each outbound call.
	CallTimeout time.Duration
}

// Client is the worker end of the hub: it owns the single connection to
// the orchestrator, reconnects with the configured backoff schedule,
// and dispatches inbound requests to the worker's handlers.
type Client struct {
	cfg        ClientConfig
	dispatcher *Dispatcher
	codec      *protocol.Registry
	logLimiter *rate.Limiter

	mu   sync.RWMutex
	conn *wsConn
}

// NewClient builds a hub client. It implements suture.Service via Run.
func NewClient(cfg ClientConfig, dispatcher *Dispatcher, codec *protocol.Registry) *Client {
	if len(cfg.Backoff) == 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &Client{
		cfg:        cfg,
		dispatcher: dispatcher,
		codec:      codec,
		logLimiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 50),
	}
}

// Run connects and serves the hub connection until the context is
// canceled, reconnecting on drops. Suitable for suture supervision.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.connect(ctx)
		if err != nil {
			delay := c.cfg.Backoff[min(attempt, len(c.cfg.Backoff)-1)]
			attempt++
			logging.WithComponent("hub-client").Warn().Err(err).
				Int("attempt", attempt).
				Dur("next_delay", delay).
				Msg("connect failed, retrying")

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		// Success resets the schedule.
		attempt = 0
		c.setConn(conn)
		logging.WithComponent("hub-client").Info().
			Str("worker", c.cfg.Name).
			Str("connection_id", conn.id).
			Msg("connected to orchestrator")

		c.serve(ctx, conn)

		c.setConn(nil)
		conn.drop()
		_ = conn.ws.Close()

		if err := ctx.Err(); err != nil {
			return err
		}
		logging.WithComponent("hub-client").Warn().
			Str("worker", c.cfg.Name).
			Msg("connection dropped, reconnecting")
	}
}

// connect dials the orchestrator and performs the authenticate
// handshake synchronously, before the read loop starts.
func (c *Client) connect(ctx context.Context) (*wsConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, resp, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", c.cfg.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	conn := newWSConn(ws)
	auth, err := protocol.Seal(protocol.NewCorrelationID(), protocol.Authenticate{
		Name:   c.cfg.Name,
		Secret: c.cfg.Secret,
	})
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	if err := conn.write(auth); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("send authenticate: %w", err)
	}

	if err := ws.SetReadDeadline(time.Now().Add(authWait)); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("set auth deadline: %w", err)
	}
	var env protocol.Envelope
	if err := ws.ReadJSON(&env); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("read authenticate response: %w", err)
	}
	if err := ws.SetReadDeadline(time.Time{}); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("clear auth deadline: %w", err)
	}

	msg, err := c.codec.Decode(env)
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("decode authenticate response: %w", err)
	}
	accepted, ok := msg.(protocol.AuthenticateResponse)
	if !ok || !accepted.Accepted {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, accepted.Message)
	}
	return conn, nil
}

// serve reads envelopes until the connection drops or the context is
// canceled. Each inbound request is handled on its own goroutine so a
// long-running sync never blocks the read loop; concurrent replies are
// serialized by the connection's write lock.
func (c *Client) serve(ctx context.Context, conn *wsConn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.ws.Close()
		case <-done:
		}
	}()

	for {
		var env protocol.Envelope
		if err := conn.ws.ReadJSON(&env); err != nil {
			return
		}

		if conn.deliver(env) {
			continue
		}

		go func(env protocol.Envelope) {
			if reply := c.dispatcher.Dispatch(ctx, env); reply != nil {
				if err := conn.write(*reply); err != nil {
					logging.WithComponent("hub-client").Warn().Err(err).
						Str("message", reply.Type).
						Msg("failed to write reply")
				}
			}
		}(env)
	}
}

func (c *Client) setConn(conn *wsConn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) current() (*wsConn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn, c.conn != nil
}

// Call issues a correlated request to the orchestrator.
func (c *Client) Call(ctx context.Context, req protocol.Request) (protocol.Message, error) {
	conn, ok := c.current()
	if !ok {
		return nil, ErrConnectionClosed
	}

	env, err := conn.call(ctx, req, c.cfg.CallTimeout)
	if err != nil {
		return nil, err
	}
	msg, err := c.codec.Decode(env)
	if err != nil {
		return nil, fmt.Errorf("decode response to %s: %w", req.WireName(), err)
	}
	if fail, ok := msg.(protocol.ErrorResponse); ok {
		return nil, &CallError{Kind: fail.Kind, Message: fail.Message}
	}
	return msg, nil
}

// Notify sends a fire-and-forget message to the orchestrator.
func (c *Client) Notify(msg protocol.Message) error {
	conn, ok := c.current()
	if !ok {
		return ErrConnectionClosed
	}
	return conn.notify(msg)
}

// AddLog forwards one log line to the orchestrator, rate limited so a
// log storm cannot saturate the connection. Throttled lines are dropped.
func (c *Client) AddLog(level, message string) {
	if !c.logLimiter.Allow() {
		return
	}
	err := c.Notify(protocol.AddLog{Level: level, Message: message, At: time.Now().UTC()})
	if err != nil {
		logging.WithComponent("hub-client").Debug().Err(err).Msg("log forwarding failed")
	}
}

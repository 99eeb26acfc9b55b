// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package hub

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/metrics"
	"github.com/tomtom215/syncfleet/internal/protocol"
)

const (
	authWait           = 10 * time.Second
	defaultCallTimeout = 30 * time.Second
)

// Server is the orchestrator end of the hub: it accepts worker
// connections, authenticates them, and routes calls to a worker by
// name over its live connection.
type Server struct {
	upgrader    websocket.Upgrader
	registry    *Registry
	credentials map[string]string
	dispatcher  *Dispatcher
	codec       *protocol.Registry
	callTimeout time.Duration
}

// NewServer builds a hub server. credentials maps worker names to their
// connect secrets; dispatcher handles worker-initiated messages such as
// log forwarding.
func NewServer(credentials map[string]string, dispatcher *Dispatcher, codec *protocol.Registry, callTimeout time.Duration) *Server {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Server{
		upgrader:    websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		registry:    NewRegistry(),
		credentials: credentials,
		dispatcher:  dispatcher,
		codec:       codec,
		callTimeout: callTimeout,
	}
}

// Workers lists the currently connected workers.
func (s *Server) Workers() []WorkerConnection {
	return s.registry.Workers()
}

// ServeHTTP upgrades one worker connection and serves it until it
// drops. The first frame must be an Authenticate request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WithComponent("hub").Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.Close()

	conn := newWSConn(ws)
	name, err := s.authenticate(conn)
	if err != nil {
		logging.WithComponent("hub").Warn().Err(err).
			Str("remote", r.RemoteAddr).
			Msg("worker authentication failed")
		return
	}

	s.registry.Put(name, conn)
	metrics.WorkersConnected.Inc()
	logging.WithComponent("hub").Info().
		Str("worker", name).
		Str("connection_id", conn.id).
		Msg("worker connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.readLoop(ctx, name, conn)

	// Remove only if the entry still points at this connection; a
	// reconnect may already have replaced it.
	s.registry.Remove(name, conn.id)
	conn.drop()
	metrics.WorkersConnected.Dec()
	logging.WithComponent("hub").Info().
		Str("worker", name).
		Str("connection_id", conn.id).
		Msg("worker disconnected")
}

// authenticate reads the first frame and verifies the worker
// credential. Failure closes the attempt with no session.
func (s *Server) authenticate(conn *wsConn) (string, error) {
	if err := conn.ws.SetReadDeadline(time.Now().Add(authWait)); err != nil {
		return "", fmt.Errorf("set auth deadline: %w", err)
	}

	var env protocol.Envelope
	if err := conn.ws.ReadJSON(&env); err != nil {
		return "", fmt.Errorf("read auth frame: %w", err)
	}
	if err := conn.ws.SetReadDeadline(time.Time{}); err != nil {
		return "", fmt.Errorf("clear auth deadline: %w", err)
	}

	if env.Type != protocol.WireAuthenticate {
		return "", fmt.Errorf("%w: first frame was %q, want %q", ErrUnauthorized, env.Type, protocol.WireAuthenticate)
	}

	msg, err := s.codec.Decode(env)
	if err != nil {
		return "", fmt.Errorf("decode auth frame: %w", err)
	}
	auth, ok := msg.(protocol.Authenticate)
	if !ok {
		return "", fmt.Errorf("%w: malformed authenticate frame", ErrUnauthorized)
	}

	secret, known := s.credentials[auth.Name]
	if !known || subtle.ConstantTimeCompare([]byte(secret), []byte(auth.Secret)) != 1 {
		_ = conn.reply(env.CorrelationID, protocol.AuthenticateResponse{
			Accepted: false,
			Message:  "invalid worker credentials",
		})
		return "", fmt.Errorf("%w: worker %q", ErrUnauthorized, auth.Name)
	}

	if err := conn.reply(env.CorrelationID, protocol.AuthenticateResponse{Accepted: true}); err != nil {
		return "", fmt.Errorf("send auth response: %w", err)
	}
	return auth.Name, nil
}

// readLoop serves inbound envelopes until the connection drops.
// Responses resolve pending calls; everything else is dispatched on its
// own goroutine so one slow handler never stalls the loop. The
// connection's write lock serializes concurrent replies.
func (s *Server) readLoop(ctx context.Context, worker string, conn *wsConn) {
	for {
		var env protocol.Envelope
		if err := conn.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.WithComponent("hub").Warn().Err(err).
					Str("worker", worker).
					Msg("connection read failed")
			}
			return
		}

		if conn.deliver(env) {
			continue
		}

		go func(env protocol.Envelope) {
			if reply := s.dispatcher.Dispatch(ctx, env); reply != nil {
				if err := conn.write(*reply); err != nil {
					logging.WithComponent("hub").Warn().Err(err).
						Str("worker", worker).
						Str("message", reply.Type).
						Msg("failed to write reply")
				}
			}
		}(env)
	}
}

// Call routes a correlated request to one worker and decodes its
// response. A missing connection fails immediately with
// ErrWorkerNotConnected; a timeout is surfaced, never retried here.
func (s *Server) Call(ctx context.Context, workerName string, req protocol.Request) (protocol.Message, error) {
	conn, ok := s.registry.Get(workerName)
	if !ok {
		metrics.HubCallsTotal.WithLabelValues(req.WireName(), "not_connected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrWorkerNotConnected, workerName)
	}

	start := time.Now()
	env, err := conn.call(ctx, req, s.callTimeout)
	metrics.HubCallDuration.WithLabelValues(req.WireName()).Observe(time.Since(start).Seconds())
	if err != nil {
		status := "error"
		switch {
		case errors.Is(err, ErrCallTimeout):
			status = "timeout"
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			status = "canceled"
		}
		metrics.HubCallsTotal.WithLabelValues(req.WireName(), status).Inc()
		return nil, err
	}

	msg, err := s.codec.Decode(env)
	if err != nil {
		metrics.HubCallsTotal.WithLabelValues(req.WireName(), "error").Inc()
		return nil, fmt.Errorf("decode response to %s: %w", req.WireName(), err)
	}
	if fail, ok := msg.(protocol.ErrorResponse); ok {
		metrics.HubCallsTotal.WithLabelValues(req.WireName(), "error").Inc()
		return nil, &CallError{Kind: fail.Kind, Message: fail.Message}
	}

	metrics.HubCallsTotal.WithLabelValues(req.WireName(), "ok").Inc()
	return msg, nil
}

// Notify sends a fire-and-forget message to one worker.
func (s *Server) Notify(workerName string, msg protocol.Message) error {
	conn, ok := s.registry.Get(workerName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWorkerNotConnected, workerName)
	}
	return conn.notify(msg)
}

// Call issues a typed request to a worker through the server.
func Call[T protocol.Response](ctx context.Context, s *Server, workerName string, req protocol.Request) (T, error) {
	var zero T
	msg, err := s.Call(ctx, workerName, req)
	if err != nil {
		return zero, err
	}
	resp, ok := msg.(T)
	if !ok {
		return zero, fmt.Errorf("hub: unexpected response %s to %s", msg.WireName(), req.WireName())
	}
	return resp, nil
}

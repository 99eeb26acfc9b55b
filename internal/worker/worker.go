// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package worker assembles the worker runtime: the sync engine, the
// mediator routing every hub request to its typed handler, and the hub
// client that keeps the orchestrator connection alive.
package worker

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/syncfleet/internal/config"
	"github.com/tomtom215/syncfleet/internal/datasource"
	"github.com/tomtom215/syncfleet/internal/hub"
	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/mediator"
	"github.com/tomtom215/syncfleet/internal/oauth"
	"github.com/tomtom215/syncfleet/internal/pipeline"
	"github.com/tomtom215/syncfleet/internal/protocol"
	"github.com/tomtom215/syncfleet/internal/secrets"
	"github.com/tomtom215/syncfleet/internal/sink"
	"github.com/tomtom215/syncfleet/internal/syncexec"
)

// Worker is one named sync worker process.
type Worker struct {
	client     *hub.Client
	dispatcher *hub.Dispatcher
	handler    *syncexec.Handler
	mediator   *mediator.Mediator
}

// Deps are the externally-owned collaborators a worker is built from.
type Deps struct {
	Sources *datasource.Registry
	Secrets secrets.Store
	OAuth   *oauth.Manager

	// CacheDB selects the durable interaction cache when non-nil.
	CacheDB *badger.DB

	// Sink overrides the HTTP sink built from config; tests use this.
	Sink sink.Sink
}

// New wires a worker from configuration.
func New(cfg config.WorkerConfig, deps Deps) (*Worker, error) {
	if deps.Sources == nil || deps.Secrets == nil || deps.OAuth == nil {
		return nil, fmt.Errorf("worker: sources, secrets, and oauth are all required")
	}

	snk := deps.Sink
	if snk == nil {
		snk = sink.NewHTTPSink(cfg.SinkURL, nil)
	}

	streams := pipeline.NewStreamFactory(pipeline.Config{
		BatchSize:   cfg.BatchSize,
		BufferSize:  cfg.BufferSize,
		CacheSecret: cfg.CacheSecret,
	}, deps.CacheDB, snk)

	handler := syncexec.NewHandler(syncexec.NewStatusRegistry(), deps.Sources, streams, cfg.Parallelism)

	med := mediator.New()
	med.Use(requestLogging)
	registerHandlers(med, handler, deps)

	dispatcher := hub.NewDispatcher(protocol.DefaultRegistry())
	for _, wireName := range []string{
		protocol.WirePing,
		protocol.WireSyncRequest,
		protocol.WireConnectorStatusRequest,
		protocol.WireWorkerCapabilitiesRequest,
		protocol.WireSetSecrets,
		protocol.WireRotateSecrets,
		protocol.WireInitializeOAuth,
		protocol.WireHandleOAuthCallback,
	} {
		route(dispatcher, med, wireName)
	}

	client := hub.NewClient(hub.ClientConfig{
		URL:     cfg.HubURL,
		Name:    cfg.Name,
		Secret:  cfg.HubSecret,
		Backoff: cfg.ReconnectBackoff,
	}, dispatcher, protocol.DefaultRegistry())

	// Failed requests also surface in the orchestrator's log stream.
	// AddLog throttles itself, so a failure storm cannot flood the hub.
	med.Use(func(next mediator.Next) mediator.Next {
		return func(ctx context.Context, req mediator.Request) (any, error) {
			resp, err := next(ctx, req)
			if err != nil {
				client.AddLog("error", fmt.Sprintf("%s failed: %v", req.WireName(), err))
			}
			return resp, err
		}
	})

	return &Worker{
		client:     client,
		dispatcher: dispatcher,
		handler:    handler,
		mediator:   med,
	}, nil
}

// Run keeps the hub connection alive until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	return w.client.Run(ctx)
}

// Client exposes the hub client for log forwarding.
func (w *Worker) Client() *hub.Client {
	return w.client
}

// Dispatcher exposes the inbound message router.
func (w *Worker) Dispatcher() *hub.Dispatcher {
	return w.dispatcher
}

// route bridges one wire name from the hub dispatcher into the
// mediator.
func route(d *hub.Dispatcher, med *mediator.Mediator, wireName string) {
	d.Handle(wireName, func(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
		resp, err := med.Send(ctx, msg)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, nil
		}
		typed, ok := resp.(protocol.Message)
		if !ok {
			return nil, fmt.Errorf("handler for %s returned non-message %T", wireName, resp)
		}
		return typed, nil
	})
}

// requestLogging times every mediated request.
func requestLogging(next mediator.Next) mediator.Next {
	return func(ctx context.Context, req mediator.Request) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		logging.WithComponent("worker").Debug().
			Str("request", req.WireName()).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("request handled")
		return resp, err
	}
}

// registerHandlers binds every supported wire request to its typed
// handler.
func registerHandlers(med *mediator.Mediator, handler *syncexec.Handler, deps Deps) {
	mediator.Register(med, func(_ context.Context, req protocol.Ping) (protocol.Pong, error) {
		return protocol.Pong{SentAt: req.SentAt, ReceivedAt: time.Now().UTC()}, nil
	})

	mediator.Register(med, func(ctx context.Context, req protocol.SyncRequest) (protocol.SyncResponse, error) {
		return handler.Handle(ctx, req)
	})

	mediator.Register(med, func(_ context.Context, req protocol.ConnectorStatusRequest) (protocol.ConnectorStatusResponse, error) {
		return protocol.ConnectorStatusResponse{Status: handler.Status(req.Connector.ID)}, nil
	})

	mediator.Register(med, func(_ context.Context, _ protocol.WorkerCapabilitiesRequest) (protocol.WorkerCapabilitiesResponse, error) {
		return protocol.WorkerCapabilitiesResponse{ConnectorTypes: deps.Sources.Types()}, nil
	})

	mediator.Register(med, func(ctx context.Context, req protocol.SetSecrets) (protocol.Ack, error) {
		for name, value := range req.Secrets {
			key := secrets.Key(req.Connector.Type, name, req.Connector.ID)
			if err := deps.Secrets.SetSecret(ctx, key, value); err != nil {
				return protocol.Ack{}, fmt.Errorf("store secret %s: %w", name, err)
			}
		}
		return protocol.Ack{Message: fmt.Sprintf("%d secrets stored", len(req.Secrets))}, nil
	})

	mediator.Register(med, func(ctx context.Context, req protocol.RotateSecrets) (protocol.Ack, error) {
		names := req.Keys
		if len(names) == 0 {
			names = []string{"token", "refresh-token"}
		}
		for _, name := range names {
			key := secrets.Key(req.Connector.Type, name, req.Connector.ID)
			if err := deps.Secrets.RemoveSecret(ctx, key); err != nil {
				return protocol.Ack{}, fmt.Errorf("remove secret %s: %w", name, err)
			}
		}
		return protocol.Ack{Message: fmt.Sprintf("%d secrets rotated out", len(names))}, nil
	})

	mediator.Register(med, func(ctx context.Context, req protocol.InitializeOAuth) (protocol.OAuthInitializedResponse, error) {
		authURL, state, err := deps.OAuth.InitializeFlow(ctx, req.Connector, req.CallbackURI)
		if err != nil {
			return protocol.OAuthInitializedResponse{}, err
		}
		return protocol.OAuthInitializedResponse{AuthorizationURL: authURL, State: state}, nil
	})

	mediator.Register(med, func(ctx context.Context, req protocol.HandleOAuthCallback) (protocol.Ack, error) {
		if err := deps.OAuth.CompleteFlow(ctx, req.Code, req.State); err != nil {
			return protocol.Ack{}, err
		}
		return protocol.Ack{Message: "authorization completed"}, nil
	})
}

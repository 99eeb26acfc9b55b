// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package main is the entry point for the Syncfleet orchestrator.
//
// The orchestrator accepts authenticated worker connections on the hub
// websocket endpoint, routes sync jobs and queries to them by name, and
// exposes an HTTP API for triggering syncs and inspecting workers. One
// listener serves the API, the hub endpoint, and Prometheus metrics.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (SYNCFLEET_ prefix)
//   - Config file (syncfleet.yaml, or SYNCFLEET_CONFIG)
//   - Built-in defaults
//
// Required settings:
//   - ORCHESTRATOR_API_SECRET: signs API bearer tokens
//   - ORCHESTRATOR_WORKER_CREDENTIALS: worker name to secret map (file only)
//
// The process shuts down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/syncfleet/internal/api"
	"github.com/tomtom215/syncfleet/internal/config"
	"github.com/tomtom215/syncfleet/internal/hub"
	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/protocol"
	"github.com/tomtom215/syncfleet/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.Orchestrator.APISecret == "" {
		logging.Fatal().Msg("orchestrator.api_secret is required")
	}
	if len(cfg.Orchestrator.WorkerCredentials) == 0 {
		logging.Warn().Msg("No worker credentials configured; no worker will be able to connect")
	}

	logging.Info().
		Str("listen_addr", cfg.Orchestrator.ListenAddr).
		Int("workers_configured", len(cfg.Orchestrator.WorkerCredentials)).
		Msg("Starting Syncfleet orchestrator")

	hubServer := hub.NewServer(
		cfg.Orchestrator.WorkerCredentials,
		newDispatcher(),
		protocol.DefaultRegistry(),
		cfg.Orchestrator.CallTimeout,
	)
	router := api.NewRouter(hubServer, cfg.Orchestrator.APISecret)

	tree := supervisor.NewTree("syncfleet-orchestrator", logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddTransportService(&supervisor.HTTPService{
		Server: &http.Server{
			Addr:              cfg.Orchestrator.ListenAddr,
			Handler:           router.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}
	logging.Info().Msg("Orchestrator stopped")
}

// newDispatcher routes the worker-initiated messages the orchestrator
// answers: liveness pings and forwarded log lines.
func newDispatcher() *hub.Dispatcher {
	d := hub.NewDispatcher(protocol.DefaultRegistry())

	d.Handle(protocol.WirePing, func(_ context.Context, msg protocol.Message) (protocol.Message, error) {
		ping := msg.(protocol.Ping)
		return protocol.Pong{SentAt: ping.SentAt, ReceivedAt: time.Now().UTC()}, nil
	})

	d.Handle(protocol.WireAddLog, func(_ context.Context, msg protocol.Message) (protocol.Message, error) {
		entry := msg.(protocol.AddLog)
		workerLog(entry)
		return nil, nil
	})

	return d
}

// workerLog re-emits a forwarded worker log line at its original level.
func workerLog(entry protocol.AddLog) {
	logger := logging.WithComponent("worker-log")
	event := logger.Info()
	switch entry.Level {
	case "debug":
		event = logger.Debug()
	case "warn", "warning":
		event = logger.Warn()
	case "error":
		event = logger.Error()
	}
	event.Time("worker_time", entry.At).Msg(entry.Message)
}

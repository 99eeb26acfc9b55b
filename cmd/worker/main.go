// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package main is the entry point for a Syncfleet worker.
//
// A worker holds one persistent authenticated websocket connection to
// the orchestrator, executes the sync jobs routed to it, and streams
// resulting interaction batches to the configured sink. Connector
// adapters register their data source factories and OAuth providers at
// startup; the core never links against provider SDKs.
//
// Required settings:
//   - WORKER_NAME: the worker's identity on the hub
//   - WORKER_HUB_URL / WORKER_HUB_SECRET: orchestrator endpoint and credential
//   - WORKER_SINK_URL: upstream ingestion endpoint
//
// Setting WORKER_CACHE_DIR switches the per-job interaction cache from
// the in-memory variant to the encrypted on-disk variant; it requires
// WORKER_CACHE_SECRET.
//
// The process shuts down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/syncfleet/internal/config"
	"github.com/tomtom215/syncfleet/internal/datasource"
	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/oauth"
	"github.com/tomtom215/syncfleet/internal/secrets"
	"github.com/tomtom215/syncfleet/internal/supervisor"
	"github.com/tomtom215/syncfleet/internal/worker"
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
	if cfg.Worker.Name == "" || cfg.Worker.HubSecret == "" {
		logging.Fatal().Msg("worker.name and worker.hub_secret are required")
	}

	logging.Info().
		Str("name", cfg.Worker.Name).
		Str("hub_url", cfg.Worker.HubURL).
		Int64("parallelism", cfg.Worker.Parallelism).
		Msg("Starting Syncfleet worker")

	store := secrets.NewMemoryStore()
	oauthMgr := oauth.NewManager(store)
	sources := datasource.NewRegistry(store)
	registerAdapters(sources, oauthMgr)

	var cacheDB *badger.DB
	if cfg.Worker.CacheDir != "" {
		cacheDB, err = badger.Open(badger.DefaultOptions(cfg.Worker.CacheDir).WithLogger(nil))
		if err != nil {
			logging.Fatal().Err(err).Str("dir", cfg.Worker.CacheDir).Msg("Failed to open interaction cache")
		}
		defer func() {
			if err := cacheDB.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing interaction cache")
			}
		}()
		logging.Info().Str("dir", cfg.Worker.CacheDir).Msg("Durable interaction cache enabled")
	} else {
		logging.Info().Msg("Using in-memory interaction cache")
	}

	w, err := worker.New(cfg.Worker, worker.Deps{
		Sources: sources,
		Secrets: store,
		OAuth:   oauthMgr,
		CacheDB: cacheDB,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build worker")
	}

	tree := supervisor.NewTree("syncfleet-worker", logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddTransportService(&supervisor.RunnerService{Name: "hub-client", Runner: w})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}
	logging.Info().Msg("Worker stopped")
}

// registerAdapters binds the connector adapters this build ships with.
// Out-of-tree deployments replace this function with their own set.
func registerAdapters(_ *datasource.Registry, _ *oauth.Manager) {
	// No adapters are bundled with the core. A deployment registers each
	// provider like so:
	//
	//	sources.Register("google-mail", googlemail.NewDataSource)
	//	oauthMgr.RegisterProvider("google-mail", googlemail.OAuthProvider(cfg))
}

// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/syncfleet/internal/logging"
)

// HTTPService adapts an *http.Server to suture.Service. The listener
// is torn down gracefully when the supervisor cancels the context.
type HTTPService struct {
	Server *http.Server

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Server.ListenAndServe()
	}()

	logging.WithComponent("supervisor").Info().
		Str("addr", s.Server.Addr).
		Msg("http server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Server.Shutdown(shutdownCtx); err != nil {
			logging.WithComponent("supervisor").Warn().Err(err).Msg("http shutdown incomplete")
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return ctx.Err()
		}
		return err
	}
}

// Runner is anything with a blocking Run loop, such as the worker's
// hub client.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService adapts a Runner to suture.Service.
type RunnerService struct {
	Name   string
	Runner Runner
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	logging.WithComponent("supervisor").Info().Str("service", s.Name).Msg("service starting")
	err := s.Runner.Run(ctx)
	logging.WithComponent("supervisor").Info().Str("service", s.Name).Err(err).Msg("service stopped")
	return err
}

// String names the service in suture's event log.
func (s *RunnerService) String() string { return s.Name }

// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package syncexec

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/metrics"
	"github.com/tomtom215/syncfleet/internal/models"
	"github.com/tomtom215/syncfleet/internal/protocol"
)

// Stream receives the interactions a data source produces. The batcher
// implements it on the worker.
type Stream interface {
	Push(interactions ...models.HashedInteraction) error
}

// DataSource is the capability boundary to one concrete provider. The core
// never inspects how a provider authenticates or paginates.
type DataSource interface {
	GetEmployees(ctx context.Context, sc *SyncContext) (models.EmployeeCollection, error)
	GetHashedEmployees(ctx context.Context, sc *SyncContext) (models.EmployeeCollection, error)
	SyncInteractions(ctx context.Context, sc *SyncContext, stream Stream) (models.SyncResult, error)
}

// DataSourceFactory builds the data source serving one connector.
type DataSourceFactory interface {
	Create(ctx context.Context, connector models.Connector) (DataSource, error)
}

// StreamFactory opens a fresh interaction stream for one job and returns
// the stream plus its flush function. Flush must be called exactly once, at
// end of stream.
type StreamFactory func(connector models.Connector) (Stream, func() error, error)

// Handler runs sync jobs: claim the connector, build the job context,
// drive the data source, release the claim on every outcome.
type Handler struct {
	statuses    *StatusRegistry
	sources     DataSourceFactory
	streams     StreamFactory
	parallelism int64
}

// NewHandler wires the sync handler. parallelism is the configured
// fan-out degree handed to every job's context.
func NewHandler(statuses *StatusRegistry, sources DataSourceFactory, streams StreamFactory, parallelism int64) *Handler {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Handler{statuses: statuses, sources: sources, streams: streams, parallelism: parallelism}
}

// Status returns the live task status for a connector.
func (h *Handler) Status(connectorID uuid.UUID) models.TaskStatus {
	return h.statuses.Get(connectorID)
}

// Handle executes one sync job. A second call for the same connector while
// the first is running fails with SyncInProgressError; calls for different
// connectors run fully in parallel.
func (h *Handler) Handle(ctx context.Context, req protocol.SyncRequest) (protocol.SyncResponse, error) {
	connectorID := req.Connector.ID

	claimed := h.statuses.TryClaim(connectorID, models.TaskStatus{
		Caption:     "Synchronizing",
		Description: "initializing",
	})
	if !claimed {
		metrics.SyncJobsTotal.WithLabelValues("rejected").Inc()
		return protocol.SyncResponse{}, &SyncInProgressError{ConnectorID: connectorID}
	}
	// The reset is the unlock for the next job on this connector; it runs
	// on every outcome.
	defer h.statuses.Release(connectorID)

	sc := NewSyncContext(req.Connector, req.Start, req.End)
	sc.Parallelism = h.parallelism
	sc.Progress = func(percent float64) {
		h.statuses.Update(connectorID, models.TaskStatus{
			Caption:        "Synchronizing",
			Description:    fmt.Sprintf("syncing %s interactions", req.Connector.Type),
			CompletionRate: percent,
		})
	}
	defer func() {
		if err := sc.Close(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("connector_id", connectorID.String()).
				Msg("sync context close failed")
		}
	}()

	result, err := h.run(ctx, sc)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// A canceled job is a distinct outcome, not a failure.
		metrics.SyncJobsTotal.WithLabelValues("canceled").Inc()
		logging.Ctx(ctx).Info().
			Str("connector_id", connectorID.String()).
			Msg("sync canceled")
		return protocol.SyncResponse{Result: result, SuccessRate: result.SuccessRate(), Canceled: true}, nil
	default:
		metrics.SyncJobsTotal.WithLabelValues("failed").Inc()
		return protocol.SyncResponse{}, err
	}

	metrics.SyncJobsTotal.WithLabelValues("completed").Inc()
	metrics.SyncTaskFailures.Add(float64(result.FailedTasksCount))
	metrics.SyncInteractions.Add(float64(result.TotalInteractionsCount))

	logging.Ctx(ctx).Info().
		Str("connector_id", connectorID.String()).
		Int("tasks", result.TasksCount).
		Int("failed_tasks", result.FailedTasksCount).
		Int64("interactions", result.TotalInteractionsCount).
		Float64("success_rate", result.SuccessRate()).
		Msg("sync completed")

	return protocol.SyncResponse{Result: result, SuccessRate: result.SuccessRate()}, nil
}

// run drives the data source for one claimed job.
func (h *Handler) run(ctx context.Context, sc *SyncContext) (models.SyncResult, error) {
	ds, err := h.sources.Create(ctx, sc.Connector)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("create data source for connector %s: %w", sc.Connector.ID, err)
	}
	if closer, ok := ds.(interface{ Close() error }); ok {
		sc.TrackCloser(closer)
	}

	stream, flush, err := h.streams(sc.Connector)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("open interaction stream: %w", err)
	}

	result, err := ds.SyncInteractions(ctx, sc, stream)
	if err != nil {
		return result, err
	}

	if err := flush(); err != nil {
		return result, fmt.Errorf("flush interaction stream: %w", err)
	}
	return result, nil
}

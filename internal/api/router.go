// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/syncfleet/internal/hub"
	"github.com/tomtom215/syncfleet/internal/models"
	"github.com/tomtom215/syncfleet/internal/protocol"
)

// Router serves the orchestrator API on top of the hub server.
type Router struct {
	hub       *hub.Server
	apiSecret string
}

// NewRouter builds the orchestrator API router.
func NewRouter(hubServer *hub.Server, apiSecret string) *Router {
	return &Router{hub: hubServer, apiSecret: apiSecret}
}

// Handler assembles the chi route tree. The hub websocket endpoint is
// mounted alongside the API so one listener serves both.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/hub", rt.hub)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(bearerAuth(rt.apiSecret))
		r.Post("/sync", rt.triggerSync)
		r.Get("/workers", rt.listWorkers)
		r.Get("/workers/{name}/capabilities", rt.workerCapabilities)
		r.Get("/workers/{name}/connectors/{connectorID}/status", rt.connectorStatus)
		r.Post("/workers/{name}/secrets", rt.setSecrets)
	})
	return r
}

// triggerSync issues a SyncRequest to one worker and returns its
// aggregated result.
func (rt *Router) triggerSync(w http.ResponseWriter, r *http.Request) {
	var req SyncTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	connectorID, err := uuid.Parse(req.ConnectorID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", "connector_id is not a uuid")
		return
	}

	resp, err := hub.Call[protocol.SyncResponse](r.Context(), rt.hub, req.Worker, protocol.SyncRequest{
		Connector: models.Connector{
			ID:         connectorID,
			Type:       req.ConnectorType,
			Properties: req.Properties,
		},
		Start: req.Start.UTC(),
		End:   req.End.UTC(),
	})
	if err != nil {
		rt.respondHubError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// listWorkers returns the currently connected workers.
func (rt *Router) listWorkers(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, rt.hub.Workers())
}

// workerCapabilities asks one worker which connector types it supports.
func (rt *Router) workerCapabilities(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	resp, err := hub.Call[protocol.WorkerCapabilitiesResponse](r.Context(), rt.hub, name, protocol.WorkerCapabilitiesRequest{})
	if err != nil {
		rt.respondHubError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// connectorStatus queries the live task status for one connector.
func (rt *Router) connectorStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	connectorID, err := uuid.Parse(chi.URLParam(r, "connectorID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", "connector id is not a uuid")
		return
	}

	resp, err := hub.Call[protocol.ConnectorStatusResponse](r.Context(), rt.hub, name, protocol.ConnectorStatusRequest{
		Connector: models.Connector{ID: connectorID},
	})
	if err != nil {
		rt.respondHubError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// setSecrets forwards secret material to one worker's secret store.
func (rt *Router) setSecrets(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req SetSecretsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	connectorID, err := uuid.Parse(req.ConnectorID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", "connector_id is not a uuid")
		return
	}

	resp, err := hub.Call[protocol.Ack](r.Context(), rt.hub, name, protocol.SetSecrets{
		Connector: models.Connector{ID: connectorID, Type: req.ConnectorType},
		Secrets:   req.Secrets,
	})
	if err != nil {
		rt.respondHubError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// respondHubError maps transport failures to HTTP statuses.
func (rt *Router) respondHubError(w http.ResponseWriter, err error) {
	var callErr *hub.CallError
	switch {
	case errors.Is(err, hub.ErrWorkerNotConnected):
		respondError(w, http.StatusServiceUnavailable, "worker_not_connected", err.Error())
	case errors.Is(err, hub.ErrCallTimeout):
		respondError(w, http.StatusGatewayTimeout, "call_timeout", err.Error())
	case errors.As(err, &callErr):
		respondError(w, http.StatusBadGateway, callErr.Kind, callErr.Message)
	default:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

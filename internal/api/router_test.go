// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/syncfleet/internal/hub"
	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/models"
	"github.com/tomtom215/syncfleet/internal/protocol"
	"github.com/tomtom215/syncfleet/internal/syncexec"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Output: io.Discard})
}

const apiSecret = "api-test-secret"

// threeUserSource fans out over three users; u2 fails.
type threeUserSource struct{}

func (threeUserSource) GetEmployees(_ context.Context, _ *syncexec.SyncContext) (models.EmployeeCollection, error) {
	return models.EmployeeCollection{Employees: []models.Employee{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}}, nil
}

func (s threeUserSource) GetHashedEmployees(ctx context.Context, sc *syncexec.SyncContext) (models.EmployeeCollection, error) {
	col, err := s.GetEmployees(ctx, sc)
	col.Hashed = true
	return col, err
}

func (threeUserSource) SyncInteractions(ctx context.Context, sc *syncexec.SyncContext, _ syncexec.Stream) (models.SyncResult, error) {
	return syncexec.ParallelRun(ctx, []string{"u1", "u2", "u3"}, sc.Parallelism, sc.Progress,
		func(_ context.Context, user string) (syncexec.TaskOutcome, error) {
			if user == "u2" {
				return syncexec.TaskOutcome{}, models.TaskError{Kind: "mail", Message: "mailbox locked"}
			}
			return syncexec.TaskOutcome{InteractionsCount: 2}, nil
		})
}

type threeUserFactory struct{}

func (threeUserFactory) Create(_ context.Context, _ models.Connector) (syncexec.DataSource, error) {
	return threeUserSource{}, nil
}

type discardStream struct{}

func (discardStream) Push(_ ...models.HashedInteraction) error { return nil }

// startStack brings up the API, the hub server behind it, and one
// connected worker named w1.
func startStack(t *testing.T) *httptest.Server {
	t.Helper()

	hubServer := hub.NewServer(
		map[string]string{"w1": "s3cret"},
		hub.NewDispatcher(protocol.DefaultRegistry()),
		protocol.DefaultRegistry(),
		5*time.Second,
	)
	ts := httptest.NewServer(NewRouter(hubServer, apiSecret).Handler())
	t.Cleanup(ts.Close)

	handler := syncexec.NewHandler(
		syncexec.NewStatusRegistry(),
		threeUserFactory{},
		func(_ models.Connector) (syncexec.Stream, func() error, error) {
			return discardStream{}, func() error { return nil }, nil
		},
		2,
	)
	workerDispatch := hub.NewDispatcher(protocol.DefaultRegistry())
	workerDispatch.Handle(protocol.WireSyncRequest, func(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
		return handler.Handle(ctx, msg.(protocol.SyncRequest))
	})
	workerDispatch.Handle(protocol.WireConnectorStatusRequest, func(_ context.Context, msg protocol.Message) (protocol.Message, error) {
		req := msg.(protocol.ConnectorStatusRequest)
		return protocol.ConnectorStatusResponse{Status: handler.Status(req.Connector.ID)}, nil
	})

	client := hub.NewClient(hub.ClientConfig{
		URL:     "ws" + strings.TrimPrefix(ts.URL, "http") + "/hub",
		Name:    "w1",
		Secret:  "s3cret",
		Backoff: []time.Duration{10 * time.Millisecond},
	}, workerDispatch, protocol.DefaultRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = client.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(5 * time.Second)
	for len(hubServer.Workers()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("worker never connected")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return ts
}

func authedRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	token, err := IssueToken(apiSecret, "tests", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doJSON(t *testing.T, req *http.Request) (int, APIResponse) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var body APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, body
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	ts := startStack(t)

	resp, err := http.Get(ts.URL + "/api/v1/workers")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	req := authedRequest(t, http.MethodGet, ts.URL+"/api/v1/workers", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	status, _ := doJSON(t, req)
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for garbage token", status)
	}
}

func TestAPI_ListWorkers(t *testing.T) {
	ts := startStack(t)

	status, body := doJSON(t, authedRequest(t, http.MethodGet, ts.URL+"/api/v1/workers", nil))
	if status != http.StatusOK || !body.Success {
		t.Fatalf("status = %d, body = %+v", status, body)
	}
}

func TestAPI_TriggerSync(t *testing.T) {
	ts := startStack(t)

	payload, _ := json.Marshal(SyncTriggerRequest{
		Worker:        "w1",
		ConnectorID:   uuid.NewString(),
		ConnectorType: "google-mail",
		Start:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	status, body := doJSON(t, authedRequest(t, http.MethodPost, ts.URL+"/api/v1/sync", payload))
	if status != http.StatusOK || !body.Success {
		t.Fatalf("status = %d, body = %+v", status, body)
	}

	raw, _ := json.Marshal(body.Data)
	var sync protocol.SyncResponse
	if err := json.Unmarshal(raw, &sync); err != nil {
		t.Fatalf("decode sync response: %v", err)
	}
	if sync.Result.TasksCount != 3 || sync.Result.FailedTasksCount != 1 {
		t.Errorf("result = %+v", sync.Result)
	}
}

func TestAPI_TriggerSyncValidation(t *testing.T) {
	ts := startStack(t)

	tests := []struct {
		name string
		body SyncTriggerRequest
	}{
		{"missing worker", SyncTriggerRequest{
			ConnectorID: uuid.NewString(), ConnectorType: "google-mail",
			Start: time.Now(), End: time.Now().Add(time.Hour),
		}},
		{"bad connector id", SyncTriggerRequest{
			Worker: "w1", ConnectorID: "nope", ConnectorType: "google-mail",
			Start: time.Now(), End: time.Now().Add(time.Hour),
		}},
		{"end before start", SyncTriggerRequest{
			Worker: "w1", ConnectorID: uuid.NewString(), ConnectorType: "google-mail",
			Start: time.Now(), End: time.Now().Add(-time.Hour),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, _ := json.Marshal(tt.body)
			status, body := doJSON(t, authedRequest(t, http.MethodPost, ts.URL+"/api/v1/sync", payload))
			if status != http.StatusBadRequest || body.Success {
				t.Errorf("status = %d, body = %+v", status, body)
			}
		})
	}
}

func TestAPI_SyncToDisconnectedWorker(t *testing.T) {
	ts := startStack(t)

	payload, _ := json.Marshal(SyncTriggerRequest{
		Worker:        "ghost",
		ConnectorID:   uuid.NewString(),
		ConnectorType: "google-mail",
		Start:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	status, body := doJSON(t, authedRequest(t, http.MethodPost, ts.URL+"/api/v1/sync", payload))
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, body = %+v", status, body)
	}
	if body.Error == nil || body.Error.Code != "worker_not_connected" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestAPI_ConnectorStatus(t *testing.T) {
	ts := startStack(t)

	url := ts.URL + "/api/v1/workers/w1/connectors/" + uuid.NewString() + "/status"
	status, body := doJSON(t, authedRequest(t, http.MethodGet, url, nil))
	if status != http.StatusOK || !body.Success {
		t.Fatalf("status = %d, body = %+v", status, body)
	}
}

func TestAPI_HealthzIsPublic(t *testing.T) {
	ts := startStack(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

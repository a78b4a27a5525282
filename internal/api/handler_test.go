package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cortexchain/chain-machine/internal/chain"
)

var testCreated = time.Date(2016, 5, 18, 16, 0, 0, 0, time.UTC)

type fakeStore struct {
	tasks    map[string]*chain.TaskRecord
	accounts map[string]*chain.AccountRecord
	fail     bool
}

func (f *fakeStore) GetTask(_ context.Context, taskID string) (*chain.TaskRecord, error) {
	if f.fail {
		return nil, fmt.Errorf("%w: connection refused", chain.ErrStoreUnavailable)
	}
	if t, ok := f.tasks[taskID]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: task %s", chain.ErrNotFound, taskID)
}

func (f *fakeStore) GetAccount(_ context.Context, accountID string) (*chain.AccountRecord, error) {
	if f.fail {
		return nil, fmt.Errorf("%w: connection refused", chain.ErrStoreUnavailable)
	}
	if a, ok := f.accounts[accountID]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: account %s", chain.ErrNotFound, accountID)
}

type fakeDirectory struct {
	routes []chain.RouteDescriptor
	fail   bool
	calls  int
}

func (f *fakeDirectory) Resolve(_ context.Context, _ []string) ([]chain.RouteDescriptor, error) {
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("%w: dial timeout", chain.ErrDirectoryUnavailable)
	}
	return f.routes, nil
}

// newTestServer wires a Handler over in-memory fakes.
func newTestServer(t *testing.T) (*httptest.Server, *fakeStore, *fakeDirectory) {
	t.Helper()
	st := &fakeStore{
		tasks: map[string]*chain.TaskRecord{
			"7df78ad8902c": {
				ID:        "7df78ad8902c",
				Created:   testCreated,
				Authority: "address1",
				Peers:     []string{"address2"},
			},
		},
		accounts: map[string]*chain.AccountRecord{
			"7df78ad890df": {
				ID:        "7df78ad890df",
				Created:   testCreated,
				Updated:   testCreated,
				Signature: "HASH",
			},
		},
	}
	dir := &fakeDirectory{
		routes: []chain.RouteDescriptor{
			{PeerID: "5cfc...40", Address: "127.0.0.1:46786"},
			{PeerID: "5cfc...41", Address: "127.0.0.1:46723"},
		},
	}
	resolver := chain.NewResolver(st, dir, zap.NewNop())
	h := NewHandler(resolver, zap.NewNop())
	ts := httptest.NewServer(h.Router())
	t.Cleanup(ts.Close)
	return ts, st, dir
}

func getJSON(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := getJSON(t, ts, "/health")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestQueryTaskWorker(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := getJSON(t, ts, "/task?task_id=7df78ad8902c&role=worker")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decodeJSON(t, resp, &body)

	if body["task_id"] != "7df78ad8902c" {
		t.Errorf("task_id = %v", body["task_id"])
	}
	if body["stage"] != float64(0) {
		t.Errorf("stage = %v", body["stage"])
	}
	route, ok := body["route"].(map[string]any)
	if !ok {
		t.Fatalf("worker route should be an object, got %T", body["route"])
	}
	if route["peer_id"] != "5cfc...40" || route["address"] != "127.0.0.1:46786" {
		t.Errorf("expected first directory route, got %v", route)
	}
}

func TestQueryTaskAuthority(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := getJSON(t, ts, "/task?task_id=7df78ad8902c&role=authority")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decodeJSON(t, resp, &body)

	routes, ok := body["route"].([]any)
	if !ok {
		t.Fatalf("authority route should be an array, got %T", body["route"])
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	first := routes[0].(map[string]any)
	if first["peer_id"] != "5cfc...40" {
		t.Errorf("order not preserved: %v", routes)
	}
}

func TestQueryTaskAuthorityEmptyResolution(t *testing.T) {
	ts, _, dir := newTestServer(t)
	dir.routes = nil

	resp := getJSON(t, ts, "/task?task_id=7df78ad8902c&role=authority")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decodeJSON(t, resp, &body)

	routes, ok := body["route"].([]any)
	if !ok {
		t.Fatalf("empty authority resolution must still be an array, got %T", body["route"])
	}
	if len(routes) != 0 {
		t.Errorf("expected empty array, got %v", routes)
	}
}

func TestQueryTaskWorkerEmptyResolution(t *testing.T) {
	ts, _, dir := newTestServer(t)
	dir.routes = nil

	resp := getJSON(t, ts, "/task?task_id=7df78ad8902c&role=worker")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decodeJSON(t, resp, &body)

	if _, present := body["route"]; present {
		t.Errorf("route should be omitted for an empty worker resolution, got %v", body["route"])
	}
}

func TestQueryTaskStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		prepare func(st *fakeStore, dir *fakeDirectory)
		status  int
	}{
		{"missing task_id", "/task?role=worker", nil, 403},
		{"missing role", "/task?task_id=7df78ad8902c", nil, 403},
		{"unknown task", "/task?task_id=ffffffffffff&role=worker", nil, 404},
		{"unknown role", "/task?task_id=7df78ad8902c&role=admin", nil, 500},
		{
			"store down", "/task?task_id=7df78ad8902c&role=worker",
			func(st *fakeStore, _ *fakeDirectory) { st.fail = true }, 503,
		},
		{
			"directory down", "/task?task_id=7df78ad8902c&role=worker",
			func(_ *fakeStore, dir *fakeDirectory) { dir.fail = true }, 500,
		},
		{
			"directory down, authority", "/task?task_id=7df78ad8902c&role=authority",
			func(_ *fakeStore, dir *fakeDirectory) { dir.fail = true }, 500,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts, st, dir := newTestServer(t)
			if c.prepare != nil {
				c.prepare(st, dir)
			}
			resp := getJSON(t, ts, c.path)
			resp.Body.Close()
			if resp.StatusCode != c.status {
				t.Errorf("expected %d, got %d", c.status, resp.StatusCode)
			}
		})
	}
}

func TestQueryTaskUnknownRoleSkipsDependencies(t *testing.T) {
	ts, _, dir := newTestServer(t)

	// Unknown role against a task that does not even exist: still an
	// internal failure, and the directory is never touched.
	resp := getJSON(t, ts, "/task?task_id=ffffffffffff&role=admin")
	resp.Body.Close()
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if dir.calls != 0 {
		t.Errorf("directory called %d times", dir.calls)
	}
}

func TestQueryTaskNotFoundNeverCallsDirectory(t *testing.T) {
	ts, _, dir := newTestServer(t)
	dir.fail = true

	resp := getJSON(t, ts, "/task?task_id=ffffffffffff&role=worker")
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 even with directory down, got %d", resp.StatusCode)
	}
	if dir.calls != 0 {
		t.Errorf("directory called %d times for a missing task", dir.calls)
	}
}

func TestQuerySignature(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := getJSON(t, ts, "/signature?account_id=7df78ad890df")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decodeJSON(t, resp, &body)

	if body["account_id"] != "7df78ad890df" || body["signature"] != "HASH" {
		t.Errorf("unexpected body: %v", body)
	}
	if body["created"] != "2016-05-18T16:00:00Z" || body["updated"] != "2016-05-18T16:00:00Z" {
		t.Errorf("timestamps not verbatim: %v", body)
	}
}

func TestQuerySignatureStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		prepare func(st *fakeStore)
		status  int
	}{
		{"missing account_id", "/signature", nil, 403},
		{"unknown account", "/signature?account_id=ffffffffffff", nil, 404},
		{
			"store down", "/signature?account_id=7df78ad890df",
			func(st *fakeStore) { st.fail = true }, 503,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts, st, _ := newTestServer(t)
			if c.prepare != nil {
				c.prepare(st)
			}
			resp := getJSON(t, ts, c.path)
			resp.Body.Close()
			if resp.StatusCode != c.status {
				t.Errorf("expected %d, got %d", c.status, resp.StatusCode)
			}
		})
	}
}

package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkroute/pkg/cache"
	"github.com/matzehuels/linkroute/pkg/layout"
	"github.com/matzehuels/linkroute/pkg/observability"
	"github.com/matzehuels/linkroute/pkg/pipeline"
	"github.com/matzehuels/linkroute/pkg/store"
)

const twoRowsJSON = `{
  "name": "two rows",
  "grid": {
    "cells": [["S", "", ""], ["", "A", ""], ["", "", ""], ["", "", "B"]],
    "row_pitch": 300,
    "col_pitch": 300,
    "origin": {"x": -150, "y": -150}
  },
  "links": [
    {"id": "a", "source": "S", "target": "A"},
    {"id": "b", "source": "S", "target": "B"}
  ]
}`

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var st store.Store
	if withStore {
		fs, err := store.NewFileStore(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		st = fs
	}
	s := New(pipeline.NewRunner(c, nil, logger), st, pipeline.Options{}, logger)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRoute(t *testing.T) {
	s := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/v1/route", twoRowsJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	first := decode[RouteResponse](t, rec)
	if first.CacheHit || first.Result == nil || len(first.Result.Trees) != 1 {
		t.Fatalf("response = %+v", first)
	}
	if got := first.Result.SegmentCount(); got != 5 {
		t.Errorf("segments = %d, want 5", got)
	}

	second := decode[RouteResponse](t, do(t, s, http.MethodPost, "/v1/route", twoRowsJSON))
	if !second.CacheHit || second.Result.PassID != first.Result.PassID {
		t.Errorf("second request should be a cache hit of the first pass")
	}

	third := decode[RouteResponse](t, do(t, s, http.MethodPost, "/v1/route?refresh=true", twoRowsJSON))
	if third.CacheHit {
		t.Error("refresh=true should skip the cache")
	}
}

func TestRouteErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"grid":`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown field", `{"gird": {}}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"no links", `{"grid": {"cells": [["S"]]}, "links": []}`, http.StatusBadRequest, "INVALID_SCENARIO"},
		{"target off grid", `{"grid": {"cells": [["S"]]}, "links": [{"id": "a", "source": "S", "target": "Z"}]}`, http.StatusNotFound, "NOT_FOUND"},
	}
	s := newTestServer(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/route", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if got := decode[ErrorResponse](t, rec); got.Code != tt.code || got.Error == "" {
				t.Errorf("error body = %+v, want code %s", got, tt.code)
			}
		})
	}
}

func TestRouteBodyLimit(t *testing.T) {
	s := newTestServer(t, false)
	s.MaxBodyBytes = 16
	rec := do(t, s, http.MethodPost, "/v1/route", twoRowsJSON)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDOT(t *testing.T) {
	s := newTestServer(t, false)
	routed := decode[RouteResponse](t, do(t, s, http.MethodPost, "/v1/route", twoRowsJSON))
	resultJSON, err := layout.MarshalResult(routed.Result)
	if err != nil {
		t.Fatal(err)
	}

	rec := do(t, s, http.MethodPost, "/v1/dot?labels=1", string(resultJSON))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `label="4"`) {
		t.Errorf("labels=1 should label segments:\n%s", rec.Body.String())
	}

	if rec := do(t, s, http.MethodPost, "/v1/dot?format=png", string(resultJSON)); rec.Code != http.StatusNotImplemented {
		t.Errorf("format=png status = %d, want 501", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/v1/dot", `{"trees": [{"source": "S", "segments": [], "drops": [{"kind": "sideways", "sense": "none"}]}]}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad drop status = %d, want 400", rec.Code)
	}
}

func TestSnapshots(t *testing.T) {
	s := newTestServer(t, true)

	routed := decode[RouteResponse](t, do(t, s, http.MethodPost, "/v1/route?save=board", twoRowsJSON))
	if routed.SnapshotID == "" {
		t.Fatal("save should return a snapshot id")
	}

	list := decode[[]store.Summary](t, do(t, s, http.MethodGet, "/v1/snapshots/", ""))
	if len(list) != 1 || list[0].ID != routed.SnapshotID || list[0].Name != "board" || list[0].Segments != 5 {
		t.Fatalf("list = %+v", list)
	}

	rec := do(t, s, http.MethodGet, "/v1/snapshots/"+routed.SnapshotID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	snap := decode[store.Snapshot](t, rec)
	if snap.Result == nil || snap.Result.PassID != routed.Result.PassID {
		t.Errorf("snapshot = %+v", snap)
	}

	if rec := do(t, s, http.MethodDelete, "/v1/snapshots/"+routed.SnapshotID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/v1/snapshots/"+routed.SnapshotID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/v1/snapshots/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestSnapshotsWithoutStore(t *testing.T) {
	s := newTestServer(t, false)
	for _, path := range []string{"/v1/snapshots/", "/v1/route?save=x"} {
		method := http.MethodGet
		body := ""
		if strings.HasPrefix(path, "/v1/route") {
			method, body = http.MethodPost, twoRowsJSON
		}
		if rec := do(t, s, method, path, body); rec.Code != http.StatusNotImplemented {
			t.Errorf("%s %s status = %d, want 501", method, path, rec.Code)
		}
	}
}

type httpCounter struct {
	mu       sync.Mutex
	requests int
	statuses []int
}

func (h *httpCounter) OnRequest(context.Context, string, string) {
	h.mu.Lock()
	h.requests++
	h.mu.Unlock()
}

func (h *httpCounter) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	h.statuses = append(h.statuses, status)
	h.mu.Unlock()
}

func TestHTTPHooks(t *testing.T) {
	counter := &httpCounter{}
	observability.SetHTTPHooks(counter)
	defer observability.Reset()

	s := newTestServer(t, false)
	do(t, s, http.MethodGet, "/healthz", "")
	do(t, s, http.MethodPost, "/v1/route", `{`)
	do(t, s, http.MethodGet, "/nowhere", "")

	if counter.requests != 3 {
		t.Errorf("requests = %d, want 3", counter.requests)
	}
	want := []int{200, 400, 404}
	if len(counter.statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", counter.statuses, want)
	}
	for i := range want {
		if counter.statuses[i] != want[i] {
			t.Errorf("statuses = %v, want %v", counter.statuses, want)
			break
		}
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := newTestServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}


func TestEvents(t *testing.T) {
	s := newTestServer(t, true)
	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	// The subscription is registered before the headers are sent.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	post, err := http.Post(ts.URL+"/v1/route?save=evt", "application/json", strings.NewReader(twoRowsJSON))
	if err != nil {
		t.Fatal(err)
	}
	var routed RouteResponse
	if err := json.NewDecoder(post.Body).Decode(&routed); err != nil {
		t.Fatal(err)
	}
	post.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		var ev PassEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			t.Fatalf("decode event %q: %v", data, err)
		}
		want := PassEvent{
			PassID:       routed.Result.PassID,
			Scenario:     "two rows",
			ScenarioHash: routed.ScenarioHash,
			Trees:        1,
			Segments:     5,
			SnapshotID:   routed.SnapshotID,
		}
		if ev != want {
			t.Errorf("event = %+v, want %+v", ev, want)
		}
		return
	}
	t.Fatalf("stream ended without an event: %v", sc.Err())
}

func TestEventsUnknownStream(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/v1/events?stream=nope", "")
	if rec.Code != http.StatusInternalServerError && rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want an error for an unknown stream", rec.Code)
	}
}

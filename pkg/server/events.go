package server

import (
	"encoding/json"
	"net/http"

	"github.com/r3labs/sse/v2"
)

// StreamPasses is the server-sent event stream of completed routing passes.
const StreamPasses = "passes"

// PassEvent is published on StreamPasses after every successful
// POST /v1/route. Events are not replayed to late subscribers.
type PassEvent struct {
	PassID       string `json:"pass_id"`
	Scenario     string `json:"scenario,omitempty"`
	ScenarioHash string `json:"scenario_hash"`
	CacheHit     bool   `json:"cache_hit"`
	Trees        int    `json:"trees"`
	Segments     int    `json:"segments"`
	Warnings     int    `json:"warnings"`
	SnapshotID   string `json:"snapshot_id,omitempty"`
}

func newEvents() *sse.Server {
	ev := sse.New()
	ev.AutoReplay = false
	ev.CreateStream(StreamPasses)
	return ev
}

func passEvent(resp RouteResponse) PassEvent {
	return PassEvent{
		PassID:       resp.Result.PassID,
		Scenario:     resp.Result.Scenario,
		ScenarioHash: resp.ScenarioHash,
		CacheHit:     resp.CacheHit,
		Trees:        len(resp.Result.Trees),
		Segments:     resp.Result.SegmentCount(),
		Warnings:     len(resp.Result.Warnings),
		SnapshotID:   resp.SnapshotID,
	}
}

func (s *Server) publishPass(resp RouteResponse) {
	ev := passEvent(resp)
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.Warn("encode pass event", "err", err)
		return
	}
	if !s.events.TryPublish(StreamPasses, &sse.Event{Event: []byte("pass"), Data: data}) {
		s.logger.Debug("pass event dropped", "pass", ev.PassID)
	}
}

// handleEvents subscribes to a stream, StreamPasses unless ?stream says
// otherwise.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("stream") == "" {
		q.Set("stream", StreamPasses)
		r.URL.RawQuery = q.Encode()
	}
	s.events.ServeHTTP(w, r)
}

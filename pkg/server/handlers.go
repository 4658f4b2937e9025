package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/linkroute/pkg/buildinfo"
	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/layout"
	"github.com/matzehuels/linkroute/pkg/pipeline"
	"github.com/matzehuels/linkroute/pkg/render"
	"github.com/matzehuels/linkroute/pkg/store"
)

// RouteResponse is the body of a successful POST /v1/route.
type RouteResponse struct {
	Result       *layout.Result `json:"result"`
	ScenarioHash string         `json:"scenario_hash"`
	CacheHit     bool           `json:"cache_hit"`
	SnapshotID   string         `json:"snapshot_id,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var contentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
	render.FormatPDF: "application/pdf",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Server", buildinfo.UserAgent())
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	scenario, err := layout.ReadScenario(s.body(w, r), layout.FormatJSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.opts
	opts.Refresh = queryBool(r, "refresh")
	out, err := s.runner.Execute(r.Context(), scenario, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := RouteResponse{Result: out.Result, ScenarioHash: out.ScenarioHash, CacheHit: out.CacheHit}
	if name, ok := r.URL.Query()["save"]; ok {
		if s.store == nil {
			s.writeError(w, r, errNoStore)
			return
		}
		snap := store.NewSnapshot(name[0], out.ScenarioHash, out.Result)
		if err := s.store.Save(r.Context(), snap); err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.SnapshotID = snap.ID
	}
	s.publishPass(resp)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatDOT
	}
	if format != render.FormatDOT && format != render.FormatSVG {
		s.writeError(w, r, lrerrors.New(lrerrors.ErrCodeUnsupported, "format %q (want dot or svg)", format))
		return
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(s.body(w, r)); err != nil {
		s.writeError(w, r, lrerrors.Wrap(lrerrors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	res, err := layout.UnmarshalResult(buf.Bytes())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	trees, err := pipeline.Trees(res)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.opts
	opts.SegmentLabels = queryBool(r, "labels")
	data, _, err := s.runner.Render(r.Context(), &pipeline.Output{Result: res, Trees: trees}, format, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

var errNoStore = lrerrors.New(lrerrors.ErrCodeUnsupported, "snapshot storage is not configured")

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errNoStore)
		return
	}
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errNoStore)
		return
	}
	snap, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errNoStore)
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// body returns the size-limited request body.
func (s *Server) body(w http.ResponseWriter, r *http.Request) *limitedBody {
	limit := s.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return &limitedBody{http.MaxBytesReader(w, r.Body, limit)}
}

// limitedBody turns the MaxBytesReader overflow into an input error.
type limitedBody struct {
	r io.Reader
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return n, lrerrors.New(lrerrors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return n, err
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := lrerrors.HTTPStatus(err)
	if status >= 500 && status != http.StatusNotImplemented {
		s.logger.Error("request error", "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{
		Error: lrerrors.UserMessage(err),
		Code:  string(lrerrors.GetCode(err)),
	})
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/linkroute/pkg/cache"
	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/layout"
	"github.com/matzehuels/linkroute/pkg/linktree"
	"github.com/matzehuels/linkroute/pkg/observability"
	"github.com/matzehuels/linkroute/pkg/render"
	"github.com/matzehuels/linkroute/pkg/route"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeResult = "result"
	keyTypeRender = "render"
)

// Runner executes passes with caching.
//
// The Runner is stateless except for the cache and logger; every Execute
// call routes with a fresh Router. Multiple goroutines can safely use the
// same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default entry lifetimes when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute routes every link of s, or returns the cached result of an
// identical earlier pass.
func (r *Runner) Execute(ctx context.Context, s *layout.Scenario, opts Options) (*Output, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	st, err := opts.Resolve(s)
	if err != nil {
		return nil, err
	}

	scenarioData, err := layout.MarshalScenario(s)
	if err != nil {
		return nil, fmt.Errorf("hash scenario: %w", err)
	}
	out := &Output{ScenarioHash: cache.Hash(scenarioData), Settings: st}
	key := r.Keyer.ResultKey(out.ScenarioHash, st.KeyOpts())

	if !opts.Refresh {
		if res, trees, ok := r.cachedResult(ctx, key); ok {
			out.Result, out.Trees, out.CacheHit = res, trees, true
			out.Stats = statsFor(res, len(s.Links), 0)
			r.Logger.Info("loaded cached result", "pass", res.PassID, "trees", len(trees))
			return out, nil
		}
	}

	start := time.Now()
	res, trees, err := r.route(ctx, s, st, opts.Logger)
	if err != nil {
		return nil, err
	}
	out.Result, out.Trees = res, trees
	out.Stats = statsFor(res, len(s.Links), time.Since(start))

	r.Logger.Info("routed scenario",
		"pass", res.PassID,
		"sources", out.Stats.Sources,
		"segments", out.Stats.Segments,
		"warnings", out.Stats.Warnings,
		"duration", out.Stats.RouteTime)

	if data, err := layout.MarshalResult(res); err == nil {
		r.store(ctx, key, keyTypeResult, data, cache.TTLResult)
	}
	return out, nil
}

func (r *Runner) route(ctx context.Context, s *layout.Scenario, st Settings, logger *log.Logger) (*layout.Result, []*linktree.Tree, error) {
	g, err := s.BuildGrid()
	if err != nil {
		return nil, nil, fmt.Errorf("build grid: %w", err)
	}
	links, err := s.RouteLinks()
	if err != nil {
		return nil, nil, err
	}

	router := route.NewRouter(g, s.Pads(), logger)
	router.Axis = st.Axis
	router.SlotUnit = st.SlotUnit
	router.MatchTolerance = st.MatchTolerance

	trees, err := router.RouteAll(ctx, links)
	if err != nil {
		return nil, nil, err
	}

	res := &layout.Result{
		PassID:   uuid.NewString(),
		Scenario: s.Name,
		Axis:     st.Axis.String(),
		Trees:    make([]layout.TreeDoc, len(trees)),
	}
	for i, t := range trees {
		res.Trees[i] = layout.FromTree(t)
	}
	for _, w := range router.Warnings() {
		res.Warnings = append(res.Warnings, w.String())
	}
	return res, trees, nil
}

// cachedResult loads and rebuilds a cached result. Unreadable entries count
// as misses.
func (r *Runner) cachedResult(ctx context.Context, key string) (*layout.Result, []*linktree.Tree, bool) {
	data, ok := r.load(ctx, key, keyTypeResult)
	if !ok {
		return nil, nil, false
	}
	res, err := layout.UnmarshalResult(data)
	if err != nil {
		r.Logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		return nil, nil, false
	}
	trees, err := Trees(res)
	if err != nil {
		r.Logger.Warn("discarding invalid cached result", "key", key, "err", err)
		return nil, nil, false
	}
	return res, trees, true
}

// Trees rebuilds the trees of a result.
func Trees(res *layout.Result) ([]*linktree.Tree, error) {
	trees := make([]*linktree.Tree, len(res.Trees))
	for i, d := range res.Trees {
		t, err := layout.ToTree(d)
		if err != nil {
			return nil, err
		}
		trees[i] = t
	}
	return trees, nil
}

// Render draws the trees of out in the given format, with caching. The
// cache key depends on the routed geometry only, not on the pass id.
func (r *Runner) Render(ctx context.Context, out *Output, format string, opts Options) ([]byte, bool, error) {
	if format == "" {
		format = DefaultFormat
	}
	if err := render.ValidateFormat(format); err != nil {
		return nil, false, lrerrors.Wrap(lrerrors.ErrCodeUnsupported, err, "render")
	}

	geometry, err := json.Marshal(out.Result.Trees)
	if err != nil {
		return nil, false, fmt.Errorf("hash result: %w", err)
	}
	key := r.Keyer.RenderKey(cache.Hash(geometry), cache.RenderKeyOpts{
		Format:        format,
		SegmentLabels: opts.SegmentLabels,
	})

	if !opts.Refresh {
		if data, ok := r.load(ctx, key, keyTypeRender); ok {
			return data, true, nil
		}
	}

	start := time.Now()
	data, err := render.Render(ctx, out.Trees, format, render.Options{SegmentLabels: opts.SegmentLabels})
	if err != nil {
		return nil, false, fmt.Errorf("render %s: %w", format, err)
	}
	r.Logger.Debug("rendered", "format", format, "bytes", len(data), "duration", time.Since(start))

	r.store(ctx, key, keyTypeRender, data, cache.TTLRender)
	return data, false, nil
}

func (r *Runner) load(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

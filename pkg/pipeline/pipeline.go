// Package pipeline runs routing passes for the CLI and the HTTP server.
//
// A pass takes a [layout.Scenario] through the whole chain: build the grid,
// resolve pads, route every source bundle with one [route.Router], export the
// trees. Keeping the chain in one place makes the CLI, the server and the
// file watcher behave identically.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	out, err := runner.Execute(ctx, scenario, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(out.Result.PassID, out.CacheHit)
//
// Render a routed pass:
//
//	svg, hit, err := runner.Render(ctx, out, "svg", pipeline.Options{})
//
// Results and renderings are cached by content hash, so re-running an
// unchanged scenario is a cache hit.
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkroute/pkg/cache"
	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/geom"
	"github.com/matzehuels/linkroute/pkg/layout"
	"github.com/matzehuels/linkroute/pkg/linktree"
	"github.com/matzehuels/linkroute/pkg/render"
	"github.com/matzehuels/linkroute/pkg/route"
)

// DefaultFormat is the rendering produced when none is asked for.
const DefaultFormat = render.FormatSVG

// =============================================================================
// Options
// =============================================================================

// Options configures a pass. Router settings here are fallbacks: a scenario
// that sets its own options wins.
type Options struct {
	Axis           string  `json:"axis,omitempty"`
	SlotUnit       float64 `json:"slot_unit,omitempty"`
	// MatchTolerance is nil for the router default; an explicit 0 asks for
	// exact split-point matches.
	MatchTolerance *float64 `json:"match_tolerance,omitempty"`

	// Refresh skips the cache lookup (the result is still stored).
	Refresh bool `json:"refresh,omitempty"`

	// SegmentLabels labels segment edges with their ids when rendering.
	SegmentLabels bool `json:"segment_labels,omitempty"`

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks the fallback settings and fills in the
// router defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if _, err := route.ParseAxis(o.Axis); err != nil {
		return err
	}
	if o.SlotUnit == 0 {
		o.SlotUnit = route.DefaultSlotUnit
	}
	if err := lrerrors.ValidatePitch("slot_unit", o.SlotUnit, geom.GridPitch); err != nil {
		return err
	}
	if o.MatchTolerance == nil {
		o.MatchTolerance = ptr(float64(route.DefaultMatchTolerance))
	}
	if err := validateTolerance(*o.MatchTolerance); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func validateTolerance(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return lrerrors.New(lrerrors.ErrCodeInvalidInput, "match_tolerance must be a finite, non-negative number (got %g)", v)
	}
	return nil
}

// Settings are the router settings in effect for one scenario.
type Settings struct {
	Axis           route.Axis
	SlotUnit       float64
	MatchTolerance float64
}

// Resolve merges the scenario's options over o. o must have been through
// ValidateAndSetDefaults.
func (o *Options) Resolve(s *layout.Scenario) (Settings, error) {
	axisName := s.Options.Axis
	if axisName == "" {
		axisName = o.Axis
	}
	axis, err := route.ParseAxis(axisName)
	if err != nil {
		return Settings{}, err
	}
	st := Settings{Axis: axis, SlotUnit: o.SlotUnit, MatchTolerance: route.DefaultMatchTolerance}
	if o.MatchTolerance != nil {
		st.MatchTolerance = *o.MatchTolerance
	}
	if v := s.Options.SlotUnit; v != 0 {
		if err := lrerrors.ValidatePitch("slot_unit", v, geom.GridPitch); err != nil {
			return Settings{}, err
		}
		st.SlotUnit = v
	}
	if v := s.Options.MatchTolerance; v != nil {
		if err := validateTolerance(*v); err != nil {
			return Settings{}, err
		}
		st.MatchTolerance = *v
	}
	return st, nil
}

// KeyOpts returns the cache key options for a result routed with st.
func (st Settings) KeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Axis:           st.Axis.String(),
		SlotUnit:       st.SlotUnit,
		MatchTolerance: st.MatchTolerance,
	}
}

// =============================================================================
// Output
// =============================================================================

// Output is everything a pass produced.
type Output struct {
	// Result is the persisted form of the pass.
	Result *layout.Result

	// Trees are the routed trees, one per source, in source order.
	Trees []*linktree.Tree

	// ScenarioHash is the content hash the result is cached under.
	ScenarioHash string

	Settings Settings
	Stats    Stats

	// CacheHit is true when Result came from the cache.
	CacheHit bool
}

// Stats summarises a pass.
type Stats struct {
	Sources   int
	Links     int
	Segments  int
	Warnings  int
	RouteTime time.Duration
}

func statsFor(res *layout.Result, links int, d time.Duration) Stats {
	return Stats{
		Sources:   len(res.Trees),
		Links:     links,
		Segments:  res.SegmentCount(),
		Warnings:  len(res.Warnings),
		RouteTime: d,
	}
}

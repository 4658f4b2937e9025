package route

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/geom"
	"github.com/matzehuels/linkroute/pkg/grid"
	"github.com/matzehuels/linkroute/pkg/linktree"
	"github.com/matzehuels/linkroute/pkg/observability"
)

const (
	// DefaultSlotUnit is the lateral distance between neighbouring slots.
	DefaultSlotUnit = geom.GridPitch
	// DefaultMatchTolerance is how far a split point may drift from the
	// segment end it is looked up by before the lookup fails.
	DefaultMatchTolerance = geom.GridPitch / 2
)

// Router grows riser/runner buses on a grid.
//
// One Router (and its SlotTracker) is meant for one routing pass: every
// bundle routed through it reserves slots, so buses of different sources
// crossing the same row or column are kept apart. A Router is not safe for
// concurrent use.
type Router struct {
	Grid *grid.Grid
	// Placement locates nodes in pixels. Defaults to Grid.
	Placement Placement
	// Pads resolves pad offsets. Defaults to StaticPads{} (every pad at the
	// node location).
	Pads  PadProvider
	Slots *SlotTracker
	Axis  Axis

	SlotUnit float64
	// MatchTolerance bounds how far a split point may be found again from
	// where it was created. Zero accepts exact matches only (floored at
	// geom.Epsilon); NewRouter sets DefaultMatchTolerance.
	MatchTolerance float64
	Logger         *log.Logger

	warnings []Warning
}

// Warning records a split point that could only be found again with the
// widened match tolerance.
type Warning struct {
	Source   string
	Link     string
	Point    geom.Point
	Distance float64
}

func (w Warning) String() string {
	return fmt.Sprintf("%s/%s: split point %v matched %.3g away", w.Source, w.Link, w.Point, w.Distance)
}

// NewRouter returns a router over g with default settings.
func NewRouter(g *grid.Grid, pads PadProvider, logger *log.Logger) *Router {
	r := &Router{Grid: g, Pads: pads, Logger: logger, MatchTolerance: DefaultMatchTolerance}
	r.defaults()
	return r
}

func (r *Router) defaults() {
	if r.Placement == nil && r.Grid != nil {
		r.Placement = r.Grid
	}
	if r.Pads == nil {
		r.Pads = StaticPads{}
	}
	if r.Slots == nil {
		r.Slots = NewSlotTracker()
	}
	if r.SlotUnit == 0 {
		r.SlotUnit = DefaultSlotUnit
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
}

// Warnings returns the widened matches seen so far, in the order they
// happened.
func (r *Router) Warnings() []Warning { return slices.Clone(r.warnings) }

// RouteAll routes every link, one bundle per source, in source order.
func (r *Router) RouteAll(ctx context.Context, links []Link) ([]*linktree.Tree, error) {
	bySource := make(map[string][]Link)
	var sources []string
	for _, l := range links {
		if _, ok := bySource[l.Source]; !ok {
			sources = append(sources, l.Source)
		}
		bySource[l.Source] = append(bySource[l.Source], l)
	}
	slices.Sort(sources)

	trees := make([]*linktree.Tree, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := r.RouteBundle(ctx, src, bySource[src])
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", src, err)
		}
		trees = append(trees, t)
	}
	return trees, nil
}

// RouteBundle builds the bus for every link leaving source.
//
// The bus starts as a star at the launch point. A riser is grown along the
// source's lane towards the farthest band of targets on each side, split at
// every band on the way, and one runner per target is then fanned out from
// the riser at that band. When targets lie on both sides, the Lower side is
// routed first and the Higher side's riser hangs from the same base point.
//
// All links must leave source from the same launch pad.
func (r *Router) RouteBundle(ctx context.Context, source string, links []Link) (tree *linktree.Tree, err error) {
	r.defaults()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	hooks := observability.Route()
	hooks.OnRouteStart(ctx, source, len(links))
	defer func() {
		segments := 0
		if tree != nil {
			segments = tree.SegmentCount()
		}
		hooks.OnRouteComplete(ctx, source, segments, time.Since(start), err)
	}()

	if err := checkBundle(source, links); err != nil {
		return nil, err
	}
	b, err := NewBounds(r.Grid, r.Axis, source, links, nil)
	if err != nil {
		return nil, err
	}
	loc, ok := r.Placement.Location(source)
	if !ok {
		return nil, lrerrors.New(lrerrors.ErrCodeNotFound, "source %q has no location", source)
	}
	off, err := r.Pads.LaunchPad(source, links[0].LaunchPad)
	if err != nil {
		return nil, err
	}
	launch := geom.Snap(geom.Add(loc, off))

	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	bb := &bundle{
		Router: r,
		ctx:    ctx,
		source: source,
		tree:   linktree.NewBus(source, launch, ids...),
		bounds: b,
	}
	launchMajor, launchMinor := r.Axis.coords(launch)
	slot := r.Axis.riserSlot(r.Slots, b.SourceMinor, source)
	bb.launchMajor = launchMajor
	bb.riserMinor = geom.SnapValue(launchMinor + float64(slot)*r.SlotUnit)
	bb.corner = launch
	bb.base = r.Axis.point(launchMajor, bb.riserMinor)
	if slot > 0 {
		// The stub over to the riser lane runs on the source's own level in
		// its band, which other buses' runners through the band never take.
		level := r.Axis.channelSlot(r.Slots, b.SourceMajor, source)
		stubMajor := geom.SnapValue(launchMajor + float64(level)*r.SlotUnit)
		bb.corner = r.Axis.point(stubMajor, launchMinor)
		bb.base = r.Axis.point(stubMajor, bb.riserMinor)
	}

	first := true
	for _, majors := range [][]int{b.LowerMajors(), b.HigherMajors()} {
		anchor, ok := b.Anchor(majors)
		if !ok {
			continue
		}
		if first {
			err = bb.tree.SplitBusLink(linktree.EndDropAddr(anchor), bb.corner)
			if err == nil {
				err = bb.tree.SplitBusLink(linktree.EndDropAddr(anchor), bb.base)
			}
		} else {
			err = bb.hang(anchor, bb.base)
		}
		if err != nil {
			return nil, err
		}
		first = false

		points, err := bb.doRiserSplits(anchor, majors)
		if err != nil {
			return nil, err
		}
		if err := bb.doRunnerSplits(majors, points); err != nil {
			return nil, err
		}
	}

	if err := bb.tree.Validate(); err != nil {
		return nil, lrerrors.Wrap(lrerrors.ErrCodeInternal, err, "routed bus for %q is invalid", source)
	}
	r.Logger.Debug("routed bundle",
		"source", source,
		"links", len(links),
		"segments", bb.tree.SegmentCount(),
		"shape", bb.tree.Shape())
	return bb.tree, nil
}

func checkBundle(source string, links []Link) error {
	if len(links) == 0 {
		return lrerrors.New(lrerrors.ErrCodeInvalidInput, "bundle for %q has no links", source)
	}
	for _, l := range links {
		if l.Source != source {
			return lrerrors.New(lrerrors.ErrCodeStructural, "link %q leaves %q, not %q", l.ID, l.Source, source)
		}
		if l.LaunchPad != links[0].LaunchPad {
			return lrerrors.New(lrerrors.ErrCodeStructural,
				"links of %q launch from pads %d (%s) and %d (%s)",
				source, links[0].LaunchPad, links[0].ID, l.LaunchPad, l.ID)
		}
	}
	return nil
}

// bundle is the state of one RouteBundle call.
type bundle struct {
	*Router
	ctx    context.Context
	source string
	tree   *linktree.Tree
	bounds *Bounds

	launchMajor float64
	riserMinor  float64
	// corner is where a stub to a slotted riser lane leaves the launch
	// point; it is the launch point itself when the riser starts there.
	corner geom.Point
	// base is where the riser starts.
	base geom.Point
}

// riserPoint is where the riser meets the channel of the band at major: the
// launch level moved by the pitches in between, shifted by the source's slot
// in that band.
func (b *bundle) riserPoint(major int) geom.Point {
	delta := b.Axis.edge(b.Grid, major) - b.Axis.edge(b.Grid, b.bounds.SourceMajor)
	slot := b.Axis.channelSlot(b.Slots, major, b.source)
	return b.Axis.point(geom.SnapValue(b.launchMajor+delta+float64(slot)*b.SlotUnit), b.riserMinor)
}

// doRiserSplits extends the anchor's drop band by band, nearest first, so the
// riser is split at every band holding a target. It returns the split point
// per band.
func (b *bundle) doRiserSplits(anchor string, majors []int) (map[int]geom.Point, error) {
	points := make(map[int]geom.Point, len(majors))
	for _, m := range majors {
		p := b.riserPoint(m)
		if err := b.tree.SplitBusLink(linktree.EndDropAddr(anchor), p); err != nil {
			return nil, fmt.Errorf("riser split at band %d: %w", m, err)
		}
		points[m] = p
	}
	return points, nil
}

type runner struct {
	link string
	end  geom.Point
	dist float64
}

// doRunnerSplits gives every link its own runner off the riser. Runners on
// the same side of the riser in one band share a comb: each hangs from the
// end of the previous, nearest first.
func (b *bundle) doRunnerSplits(majors []int, points map[int]geom.Point) error {
	for _, m := range majors {
		band, _ := b.bounds.Band(m)
		at := points[m]
		atMajor, _ := b.Axis.coords(at)

		var on, lower, higher []runner
		for _, id := range band.Links() {
			l, _ := b.bounds.Link(id)
			q, err := b.runnerEnd(l, atMajor)
			if err != nil {
				return err
			}
			_, qMinor := b.Axis.coords(q)
			d := qMinor - b.riserMinor
			x := runner{link: id, end: q, dist: math.Abs(d)}
			switch {
			case x.dist <= geom.Epsilon:
				on = append(on, x)
			case d < 0:
				lower = append(lower, x)
			default:
				higher = append(higher, x)
			}
		}

		for _, x := range on {
			if err := b.hang(x.link, at); err != nil {
				return err
			}
		}
		for _, comb := range [][]runner{lower, higher} {
			slices.SortStableFunc(comb, func(x, y runner) int { return cmp.Compare(x.dist, y.dist) })
			from := at
			for _, x := range comb {
				if err := b.hang(x.link, from); err != nil {
					return err
				}
				if err := b.tree.SplitBusLink(linktree.EndDropAddr(x.link), x.end); err != nil {
					return fmt.Errorf("runner split for %s: %w", x.link, err)
				}
				from = x.end
			}
		}
	}
	return nil
}

// runnerEnd is where the runner for l stops: level with the riser point of
// its band, across from the landing pad.
func (b *bundle) runnerEnd(l Link, level float64) (geom.Point, error) {
	loc, ok := b.Placement.Location(l.Target)
	if !ok {
		return geom.Point{}, lrerrors.New(lrerrors.ErrCodeNotFound, "target %q of link %q has no location", l.Target, l.ID)
	}
	off, err := b.Pads.LandingPad(l.Target, l.LandingPad, l.Sign)
	if err != nil {
		return geom.Point{}, err
	}
	_, minor := b.Axis.coords(geom.Add(loc, off))
	return b.Axis.point(level, geom.SnapValue(minor)), nil
}

// hang re-hangs the drop of link from the end of the segment ending at p.
func (b *bundle) hang(link string, p geom.Point) error {
	id, widened, err := b.tree.SegmentEndingAt(p, b.MatchTolerance)
	if err != nil {
		return lrerrors.Wrap(lrerrors.ErrCodeNumericNearMiss, err, "re-find split point for link %q", link)
	}
	if widened {
		s, _ := b.tree.Segment(id)
		w := Warning{Source: b.source, Link: link, Point: p, Distance: geom.Dist(s.EndPoint(), p)}
		b.warnings = append(b.warnings, w)
		b.Logger.Warn("split point matched with widened tolerance",
			"source", w.Source,
			"link", w.Link,
			"point", p,
			"distance", w.Distance)
		observability.Route().OnWidenedMatch(b.ctx, w.Source, w.Link, w.Distance)
	}
	return b.tree.RelocateOnTree(linktree.EndDropAddr(link), linktree.SegmentEndAddr(id))
}

package geom

import (
	"fmt"
	"math"
)

// Segment is one straight piece of a routed path, or a single point when it is
// degenerate. Degenerate segments stand in for a junction whose outgoing
// direction is not known yet (for example the root of a freshly created bus).
//
// The run, normal and length are derived from the endpoints on every
// construction; there is no way to change an endpoint without re-deriving them.
// The zero value is a degenerate segment at the origin.
type Segment struct {
	start  Point
	end    Point
	hasEnd bool
	run    Vec
	normal Vec
	length float64

	// Style is an optional draw-style tag carried through splits.
	Style string
}

// NewSegment creates a segment from start to end. If the two points coincide
// the result is degenerate.
func NewSegment(start, end Point) Segment {
	s := Segment{start: start, end: end, hasEnd: true}
	s.derive()
	return s
}

// NewPointSegment creates a degenerate segment located at p.
func NewPointSegment(p Point) Segment {
	return Segment{start: p}
}

func (s *Segment) derive() {
	if !s.hasEnd {
		s.end, s.run, s.normal, s.length = Point{}, Vec{}, Vec{}, 0
		return
	}
	d := Sub(s.end, s.start)
	if Len(d) <= Epsilon {
		s.end, s.hasEnd = Point{}, false
		s.run, s.normal, s.length = Vec{}, Vec{}, 0
		return
	}
	s.length = Len(d)
	s.run = Normalized(d)
	s.normal = Rotate90(s.run)
}

// Start returns the start point.
func (s Segment) Start() Point { return s.start }

// End returns the end point and true, or the start point and false for a
// degenerate segment.
func (s Segment) End() (Point, bool) {
	if !s.hasEnd {
		return s.start, false
	}
	return s.end, true
}

// EndPoint returns the end point, or the start point for a degenerate segment.
func (s Segment) EndPoint() Point {
	p, _ := s.End()
	return p
}

// IsDegenerate reports whether the segment is a single point.
func (s Segment) IsDegenerate() bool { return !s.hasEnd }

// Run returns the unit vector from start to end. ok is false for a degenerate segment.
func (s Segment) Run() (v Vec, ok bool) { return s.run, s.hasEnd }

// Normal returns the run rotated by 90 degrees. ok is false for a degenerate segment.
func (s Segment) Normal() (v Vec, ok bool) { return s.normal, s.hasEnd }

// Length returns the distance from start to end (0 when degenerate).
func (s Segment) Length() float64 { return s.length }

// WithStart returns a copy with a new start point.
func (s Segment) WithStart(p Point) Segment {
	out := s
	out.start = p
	out.derive()
	return out
}

// WithEnd returns a copy with a new end point.
func (s Segment) WithEnd(p Point) Segment {
	out := s
	out.end, out.hasEnd = p, true
	out.derive()
	return out
}

// Reversed returns the segment running from end to start.
func (s Segment) Reversed() Segment {
	if !s.hasEnd {
		return s
	}
	out := NewSegment(s.end, s.start)
	out.Style = s.Style
	return out
}

// IsOrthogonal reports whether the segment is degenerate or runs along an axis.
func (s Segment) IsOrthogonal() bool {
	return !s.hasEnd || IsCanonical(s.run)
}

// String implements fmt.Stringer.
func (s Segment) String() string {
	if !s.hasEnd {
		return fmt.Sprintf("(%g,%g)", s.start.X, s.start.Y)
	}
	return fmt.Sprintf("(%g,%g)->(%g,%g)", s.start.X, s.start.Y, s.end.X, s.end.Y)
}

// ClosestPoint projects p onto the segment. It returns false when the
// projection falls outside [0, length]; callers then fall back to the nearer
// endpoint. A degenerate segment's closest point is its location.
func (s Segment) ClosestPoint(p Point) (Point, bool) {
	if !s.hasEnd {
		return s.start, true
	}
	along := Dot(Sub(p, s.start), s.run)
	if along < -Epsilon || along > s.length+Epsilon {
		return Point{}, false
	}
	along = math.Min(math.Max(along, 0), s.length)
	return Add(s.start, Scale(along, s.run)), true
}

// Distance returns the distance from p to the segment.
func (s Segment) Distance(p Point) float64 {
	if c, ok := s.ClosestPoint(p); ok {
		return Dist(p, c)
	}
	return math.Min(Dist(p, s.start), Dist(p, s.end))
}

// IntersectsPoint reports whether p lies within tol of the segment's line and
// within [0, length] along its run. The returned offset is the signed
// perpendicular distance (the plain distance for a degenerate segment) and is
// only meaningful for diagnostics.
func (s Segment) IntersectsPoint(p Point, tol float64) (offset float64, ok bool) {
	limit := math.Max(tol, Epsilon)
	if !s.hasEnd {
		d := Dist(p, s.start)
		return d, d <= limit
	}
	rel := Sub(p, s.start)
	offset = Cross(s.run, rel)
	if math.Abs(offset) > limit {
		return offset, false
	}
	along := Dot(rel, s.run)
	if along < -Epsilon || along > s.length+Epsilon {
		return offset, false
	}
	return offset, true
}

// IntersectsNonEndpoint is IntersectsPoint excluding matches at exactly the
// start or end point. It finds T-junctions.
func (s Segment) IntersectsNonEndpoint(p Point, tol float64) (offset float64, ok bool) {
	if !s.hasEnd {
		return 0, false
	}
	if Near(p, s.start, 0) || Near(p, s.end, 0) {
		return 0, false
	}
	return s.IntersectsPoint(p, tol)
}

// FractionOfRun returns how far along the run p projects, as a fraction of
// the length. A degenerate segment always answers 0.
func (s Segment) FractionOfRun(p Point) float64 {
	if !s.hasEnd {
		return 0
	}
	return Dot(Sub(p, s.start), s.run) / s.length
}

// PointAtFraction returns the point at fraction f of the way from start to end.
func (s Segment) PointAtFraction(f float64) Point {
	if !s.hasEnd {
		return s.start
	}
	return Add(s.start, Scale(f*s.length, s.run))
}

// LabelAnchor stores a position relative to a segment so that it survives a
// later split or move of the segment.
type LabelAnchor struct {
	Fraction float64 `json:"fraction"`
	Offset   float64 `json:"offset"`
}

// Anchor records p relative to the segment.
func (s Segment) Anchor(p Point) LabelAnchor {
	if !s.hasEnd {
		return LabelAnchor{Offset: Dist(p, s.start)}
	}
	rel := Sub(p, s.start)
	return LabelAnchor{Fraction: Dot(rel, s.run) / s.length, Offset: Dot(rel, s.normal)}
}

// AnchorPoint recovers the absolute position for a LabelAnchor.
func (s Segment) AnchorPoint(a LabelAnchor) Point {
	if !s.hasEnd {
		return s.start
	}
	return Add(s.PointAtFraction(a.Fraction), Scale(a.Offset, s.normal))
}

// Split cuts the segment at p. If p coincides with an endpoint, or the segment
// is degenerate, the segment is returned unchanged as the only element.
// Otherwise the result is [start,p'] and [p',end] where p' is p snapped to
// GridPitch, both carrying the original Style. The original endpoints are
// kept as they are, so the halves always span the segment. A p' that lands
// on or beyond an endpoint leaves the segment whole, which also makes
// splitting an already split point a no-op.
func (s Segment) Split(p Point) []Segment {
	if !s.hasEnd || Near(p, s.start, 0) || Near(p, s.end, 0) {
		return []Segment{s}
	}
	sp := Snap(p)
	if f := s.FractionOfRun(sp); f*s.length <= Epsilon || (1-f)*s.length <= Epsilon {
		return []Segment{s}
	}
	a, b := NewSegment(s.start, sp), NewSegment(sp, s.end)
	a.Style, b.Style = s.Style, s.Style
	return []Segment{a, b}
}

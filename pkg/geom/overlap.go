package geom

import "math"

// Overlap classifies where two segments touch.
type Overlap int

const (
	// NoOverlap means the segments do not touch (or only touch where the
	// SharedPolicy says they are expected to).
	NoOverlap Overlap = iota
	// OverlapThisStart means the receiver's start point lies on the other segment.
	OverlapThisStart
	// OverlapThisEnd means the receiver's end point lies on the other segment.
	OverlapThisEnd
	// OverlapOtherStart means the other segment's start lies on the receiver.
	OverlapOtherStart
	// OverlapOtherEnd means the other segment's end lies on the receiver.
	OverlapOtherEnd
	// OverlapInterior means the two segments cross away from every endpoint.
	OverlapInterior
)

var overlapNames = [...]string{"none", "this-start", "this-end", "other-start", "other-end", "interior"}

// String implements fmt.Stringer.
func (o Overlap) String() string {
	if int(o) < len(overlapNames) {
		return overlapNames[o]
	}
	return "unknown"
}

// SharedPolicy names the contact between two segments that is expected and
// must not be reported, e.g. a parent's end touching its child's start.
type SharedPolicy int

const (
	NoShared SharedPolicy = iota
	SharedStarts
	ThisStartOtherEndShared
	ThisEndOtherStartShared
)

// Overlaps classifies how the receiver touches other. Contacts covered by
// policy are suppressed so only unexpected overlaps are reported. Endpoint
// contacts are checked first, in the order this-start, this-end, other-start,
// other-end; a crossing away from every endpoint is found with the two-line
// parametric solve. Degenerate segments take explicit branches because the
// solve needs two real runs.
func (s Segment) Overlaps(other Segment, policy SharedPolicy, tol float64) Overlap {
	switch {
	case !s.hasEnd && !other.hasEnd:
		if Near(s.start, other.start, tol) && policy == NoShared {
			return OverlapThisStart
		}
		return NoOverlap
	case !s.hasEnd:
		return degenerateOnReal(s.start, other, policy, tol)
	case !other.hasEnd:
		return realUnderDegenerate(s, other.start, policy, tol)
	}

	if _, ok := other.IntersectsPoint(s.start, tol); ok {
		expected := (policy == SharedStarts && Near(s.start, other.start, tol)) ||
			(policy == ThisStartOtherEndShared && Near(s.start, other.end, tol))
		if !expected {
			return OverlapThisStart
		}
	}
	if _, ok := other.IntersectsPoint(s.end, tol); ok {
		expected := policy == ThisEndOtherStartShared && Near(s.end, other.start, tol)
		if !expected {
			return OverlapThisEnd
		}
	}
	if _, ok := s.IntersectsPoint(other.start, tol); ok {
		expected := (policy == SharedStarts && Near(other.start, s.start, tol)) ||
			(policy == ThisEndOtherStartShared && Near(other.start, s.end, tol))
		if !expected {
			return OverlapOtherStart
		}
	}
	if _, ok := s.IntersectsPoint(other.end, tol); ok {
		expected := policy == ThisStartOtherEndShared && Near(other.end, s.start, tol)
		if !expected {
			return OverlapOtherEnd
		}
	}

	d1 := Sub(s.end, s.start)
	d2 := Sub(other.end, other.start)
	den := Cross(d1, d2)
	if math.Abs(den) <= Epsilon {
		return NoOverlap
	}
	w := Sub(other.start, s.start)
	ua := Cross(w, d2) / den
	ub := Cross(w, d1) / den
	if ua < 0 || ua > 1 || ub < 0 || ub > 1 {
		return NoOverlap
	}
	// Endpoint contacts were classified (or suppressed) above.
	x := Add(s.start, Scale(ua, d1))
	for _, p := range [...]Point{s.start, s.end, other.start, other.end} {
		if Near(x, p, tol) {
			return NoOverlap
		}
	}
	return OverlapInterior
}

// degenerateOnReal handles a point-only receiver against a real segment.
func degenerateOnReal(p Point, other Segment, policy SharedPolicy, tol float64) Overlap {
	if _, ok := other.IntersectsPoint(p, tol); !ok {
		return NoOverlap
	}
	switch {
	case Near(p, other.start, tol):
		if policy == SharedStarts || policy == ThisEndOtherStartShared {
			return NoOverlap
		}
		return OverlapOtherStart
	case Near(p, other.end, tol):
		if policy == ThisStartOtherEndShared {
			return NoOverlap
		}
		return OverlapOtherEnd
	default:
		return OverlapThisStart
	}
}

// realUnderDegenerate handles a real receiver against a point-only segment.
func realUnderDegenerate(s Segment, p Point, policy SharedPolicy, tol float64) Overlap {
	if _, ok := s.IntersectsPoint(p, tol); !ok {
		return NoOverlap
	}
	switch {
	case Near(p, s.start, tol):
		if policy == SharedStarts || policy == ThisStartOtherEndShared {
			return NoOverlap
		}
		return OverlapThisStart
	case Near(p, s.end, tol):
		if policy == ThisEndOtherStartShared {
			return NoOverlap
		}
		return OverlapThisEnd
	default:
		return OverlapOtherStart
	}
}

package linktree

import (
	"math"
	"slices"

	"github.com/matzehuels/linkroute/pkg/geom"
)

// splitReach is how far a split point may sit off the addressed segment and
// still be accepted. Split points are snapped, so half a pitch is the most
// rounding can move them.
const splitReach = geom.GridPitch / 2

// SplitBusLink inserts a new junction at p, modifying the tree in place.
//
//   - AddrDirect turns a direct tree into a bus: a degenerate root at p with
//     the start and every end drop hanging from it.
//   - AddrStartDrop inserts a new root segment from p to the old root's start.
//   - AddrEndDrop grows a segment from the drop's attach point to p and re-hangs
//     the drop from its end.
//   - AddrSegment cuts the segment at p. The lower half gets a fresh id and
//     takes over the children and end-hung drops of the original.
//
// Splitting at a point that is already a junction is a no-op.
func (t *Tree) SplitBusLink(addr Address, p geom.Point) error {
	switch addr.Kind {
	case AddrDirect:
		return t.splitDirect(p)
	case AddrStartDrop:
		if t.IsDirect() {
			return t.splitDirect(p)
		}
		return t.splitStartDrop(p)
	case AddrEndDrop:
		if t.IsDirect() {
			return t.splitDirect(p)
		}
		return t.splitEndDrop(addr.Target, p)
	case AddrSegment:
		if addr.Endpoint != EndpointNone {
			_, err := t.mustSegment(addr.Segment)
			return err
		}
		_, err := t.splitSegment(addr.Segment, p)
		return err
	default:
		return structural(ErrBadAddress, "address kind %v", addr.Kind)
	}
}

func (t *Tree) splitDirect(p geom.Point) error {
	if !t.IsDirect() {
		return structural(ErrBadAddress, "direct split on a routed tree")
	}
	root := t.add(geom.NewPointSegment(p), NoSegment)
	for i := range t.drops {
		if t.drops[i].Kind == StartDrop {
			t.drops[i].Conn = Connection{Segment: root, Sense: ConnectToStart}
		} else {
			t.drops[i].Conn = Connection{Segment: root, Sense: ConnectToEnd}
		}
	}
	return nil
}

func (t *Tree) splitStartDrop(p geom.Point) error {
	rootID := t.Root()
	root := t.segs[rootID]
	if geom.Near(p, root.Start(), 0) {
		return nil
	}
	newRoot := t.add(geom.NewSegment(p, root.Start()), NoSegment)
	root.Parent = newRoot
	t.segs[rootID] = root
	// Keep the root first in order so listings read source to targets.
	t.order = append([]SegmentID{newRoot}, t.order[:len(t.order)-1]...)
	for i := range t.drops {
		if t.drops[i].Kind == StartDrop {
			t.drops[i].Conn = Connection{Segment: newRoot, Sense: ConnectToStart}
		}
	}
	return nil
}

func (t *Tree) splitEndDrop(target string, p geom.Point) error {
	i, err := t.mustDrop(target)
	if err != nil {
		return err
	}
	d := t.drops[i]
	at, ok := t.AttachPoint(d)
	if !ok {
		return structural(ErrUnknownSegment, "drop %q hangs from segment %d", target, d.Conn.Segment)
	}
	if geom.Near(p, at, 0) {
		return nil
	}
	parent := d.Conn.Segment
	if d.Conn.Sense == ConnectToStart {
		s := t.segs[parent]
		if s.Parent == NoSegment {
			return structural(ErrBadAddress, "drop %q hangs from the start of the root", target)
		}
		parent = s.Parent
	}
	g := geom.NewSegment(at, p)
	g.Style = d.Style
	id := t.add(g, parent)
	t.drops[i].Conn = Connection{Segment: id, Sense: ConnectToEnd}
	return nil
}

// splitSegment cuts segment id at p and returns the id of the segment that now
// ends at p. The original keeps its id and becomes the upper half.
func (t *Tree) splitSegment(id SegmentID, p geom.Point) (SegmentID, error) {
	s, err := t.mustSegment(id)
	if err != nil {
		return NoSegment, err
	}
	if s.IsDegenerate() {
		if !geom.Near(p, s.Start(), splitReach) {
			return NoSegment, structural(ErrNotOnSegment, "%v is not at degenerate segment %d %v", p, id, s.Segment)
		}
		return id, nil
	}
	if s.Distance(p) > splitReach {
		return NoSegment, structural(ErrNotOnSegment, "%v is %.3g away from segment %d %v", p, s.Distance(p), id, s.Segment)
	}
	if geom.Near(p, s.EndPoint(), 0) {
		return id, nil
	}
	if geom.Near(p, s.Start(), 0) {
		if s.Parent == NoSegment {
			return NoSegment, structural(ErrBadAddress, "split at the start of root segment %d", id)
		}
		return s.Parent, nil
	}

	parts := s.Split(p)
	if len(parts) == 1 {
		// p snapped onto (or past) an endpoint.
		if s.FractionOfRun(geom.Snap(p)) < 0.5 && s.Parent != NoSegment {
			return s.Parent, nil
		}
		return id, nil
	}
	upper, lower := parts[0], parts[1]

	children := t.Children(id)
	s.Segment = upper
	t.segs[id] = s
	lowerID := t.insertAfter(id, lower, id)
	for _, c := range children {
		cs := t.segs[c]
		cs.Parent = lowerID
		t.segs[c] = cs
	}
	for i := range t.drops {
		if t.drops[i].Conn.Segment == id && t.drops[i].Conn.Sense == ConnectToEnd {
			t.drops[i].Conn.Segment = lowerID
		}
	}
	return id, nil
}

// insertAfter adds a segment with a fresh id directly after another in order.
func (t *Tree) insertAfter(after SegmentID, g geom.Segment, parent SegmentID) SegmentID {
	id := t.add(g, parent)
	t.order = t.order[:len(t.order)-1]
	for i, x := range t.order {
		if x == after {
			t.order = slices.Insert(t.order, i+1, id)
			return id
		}
	}
	t.order = append(t.order, id)
	return id
}

// SegmentEndingAt finds the segment whose end point is p. An exact match (up
// to geom.Epsilon) wins; failing that, the nearest end within tol is used and
// widened is true so callers can flag the near miss. No match at all is a
// STRUCTURAL error wrapping ErrNoSuchEnd.
//
// Ties are broken by segment order, and among equal points the deepest
// segment wins so a degenerate root never shadows a real segment ending at
// the same junction.
func (t *Tree) SegmentEndingAt(p geom.Point, tol float64) (id SegmentID, widened bool, err error) {
	best, bestDist := NoSegment, math.Inf(1)
	for _, sid := range t.order {
		s := t.segs[sid]
		d := geom.Dist(s.EndPoint(), p)
		if d < bestDist-geom.Epsilon || (math.Abs(d-bestDist) <= geom.Epsilon && t.depth(sid) > t.depth(best)) {
			best, bestDist = sid, d
		}
	}
	switch {
	case best == NoSegment:
		return NoSegment, false, structural(ErrNoSuchEnd, "%v in a tree without segments", p)
	case bestDist <= geom.Epsilon:
		return best, false, nil
	case bestDist <= tol:
		return best, true, nil
	default:
		return NoSegment, false, structural(ErrNoSuchEnd, "%v (nearest end is %.3g away)", p, bestDist)
	}
}

func (t *Tree) depth(id SegmentID) int {
	return len(t.ancestors(id))
}

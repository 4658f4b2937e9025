package linktree

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/linkroute/pkg/geom"
)

var (
	// ErrUnknownSegment is wrapped by every operation handed a segment id that
	// is not present in the tree.
	ErrUnknownSegment = errors.New("unknown segment")

	// ErrUnknownTarget is wrapped by every operation handed a link id that no
	// end drop of the tree carries.
	ErrUnknownTarget = errors.New("unknown link target")

	// ErrBadRemap is wrapped by [Tree.InsertNode] and [Tree.NewTreeBelowSegment]
	// when the link id remap does not hold exactly the keys the chosen branch
	// needs. A missing key and an extra key are both caller errors.
	ErrBadRemap = errors.New("link id remap does not match the affected links")

	// ErrBadAddress is wrapped when an [Address] names a location that does not
	// make sense for the tree's current shape, such as a direct-link address on
	// a routed tree.
	ErrBadAddress = errors.New("address does not fit the tree")

	// ErrNotOnSegment is wrapped by [Tree.SplitBusLink] when the split point is
	// not on the addressed segment.
	ErrNotOnSegment = errors.New("point is not on the segment")

	// ErrWouldCycle is wrapped by [Tree.RelocateSegment] when the new parent
	// lies in the subtree of the segment being moved.
	ErrWouldCycle = errors.New("relocation would create a cycle")

	// ErrNoSuchEnd is wrapped by [Tree.SegmentEndingAt] when no segment ends at
	// the requested point, even with the widened tolerance.
	ErrNoSuchEnd = errors.New("no segment ends at point")

	// ErrInvalidTree is wrapped by [Tree.Validate] and [Build] for trees that
	// violate a structural invariant.
	ErrInvalidTree = errors.New("invalid link tree")
)

// SegmentID addresses a segment within one tree. Ids are small integers
// handed out in increasing order and never reused by the same tree.
type SegmentID int

// NoSegment is the "no segment" sentinel: the parent of the root segment, and
// the segment of a direct connection.
const NoSegment SegmentID = -1

// Segment is a geometric segment placed in a tree.
type Segment struct {
	geom.Segment
	ID     SegmentID
	Parent SegmentID // NoSegment for the root
}

// IsRoot reports whether the segment hangs from no other segment.
func (s Segment) IsRoot() bool { return s.Parent == NoSegment }

// DropKind tells the root drop from terminal drops.
type DropKind int

const (
	// StartDrop attaches the tree to its source pad. Every tree has exactly one.
	StartDrop DropKind = iota
	// EndDrop attaches one link's target pad to the tree.
	EndDrop
)

func (k DropKind) String() string {
	if k == StartDrop {
		return "start"
	}
	return "end"
}

// Sense says which end of a segment a drop hangs from.
type Sense int

const (
	ConnectNone Sense = iota
	ConnectToStart
	ConnectToEnd
)

var senseNames = [...]string{"none", "start", "end"}

func (s Sense) String() string {
	if int(s) >= 0 && int(s) < len(senseNames) {
		return senseNames[s]
	}
	return fmt.Sprintf("Sense(%d)", int(s))
}

// ParseSense is the inverse of Sense.String.
func ParseSense(s string) (Sense, bool) {
	for i, n := range senseNames {
		if n == s {
			return Sense(i), true
		}
	}
	return ConnectNone, false
}

// Connection is a segment id paired with the end it is attached at.
type Connection struct {
	Segment SegmentID
	Sense   Sense
}

// DirectConnection marks a drop of an unrouted, straight node-to-node link.
var DirectConnection = Connection{Segment: NoSegment, Sense: ConnectNone}

// IsDirect reports whether c is the direct-link sentinel.
func (c Connection) IsDirect() bool { return c.Sense == ConnectNone }

// Drop attaches a pad to the tree: the source pad for the StartDrop, a target
// pad for each EndDrop.
type Drop struct {
	Kind   DropKind
	Target string // link id; empty for the start drop
	Conn   Connection
	Style  string // optional draw style override
}

// Shape is the coarse state of a tree.
type Shape int

const (
	// Direct trees have no segments, one start and one end drop.
	Direct Shape = iota
	// SinglePath trees are a chain of segments serving one end drop.
	SinglePath
	// Branching trees serve two or more end drops.
	Branching
)

func (s Shape) String() string {
	switch s {
	case Direct:
		return "direct"
	case SinglePath:
		return "single-path"
	default:
		return "branching"
	}
}

// Tree is the bus of all links leaving one source: a rooted tree of segments
// plus the drops hanging from it.
//
// Copy-on-write edits (RetainSinglePath, InsertNode, MergeComplementaryLinks,
// ...) never modify the receiver, so a caller abandoning an edit just drops
// the result. The router-facing edits (SplitBusLink, RelocateOnTree) modify
// the receiver in place and are meant for a tree the caller owns outright,
// usually a fresh Clone.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	// Source is the node (or module) every link in the bus starts from.
	Source string
	// NetModule trees hang from a flexible module pad instead of a fixed grid
	// junction, which relaxes CanRelocateSegment.
	NetModule bool

	segs   map[SegmentID]Segment
	order  []SegmentID
	drops  []Drop
	nextID SegmentID
}

func newTree(source string) *Tree {
	return &Tree{Source: source, segs: make(map[SegmentID]Segment)}
}

// NewDirect creates a direct tree: a straight, unrouted link from source to
// target with no segments.
func NewDirect(source, target string) *Tree {
	t := newTree(source)
	t.drops = []Drop{
		{Kind: StartDrop, Conn: DirectConnection},
		{Kind: EndDrop, Target: target, Conn: DirectConnection},
	}
	return t
}

// NewBus creates a star-shaped tree: a single degenerate root segment located
// at the launch point with the start drop and every target hanging from it.
// The router grows real risers and runners out of this junction.
func NewBus(source string, launch geom.Point, targets ...string) *Tree {
	t := newTree(source)
	root := t.add(geom.NewPointSegment(launch), NoSegment)
	t.drops = append(t.drops, Drop{Kind: StartDrop, Conn: Connection{root, ConnectToStart}})
	for _, target := range targets {
		t.drops = append(t.drops, Drop{Kind: EndDrop, Target: target, Conn: Connection{root, ConnectToEnd}})
	}
	return t
}

// Build assembles a tree from already numbered segments and drops, keeping
// their ids, order and parents exactly. The result is validated.
func Build(source string, netModule bool, segments []Segment, drops []Drop) (*Tree, error) {
	t := newTree(source)
	t.NetModule = netModule
	for _, s := range segments {
		if _, dup := t.segs[s.ID]; dup || s.ID < 0 {
			return nil, structural(ErrInvalidTree, "segment id %d is negative or repeated", s.ID)
		}
		t.segs[s.ID] = s
		t.order = append(t.order, s.ID)
		if s.ID >= t.nextID {
			t.nextID = s.ID + 1
		}
	}
	t.drops = slices.Clone(drops)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Clone returns a deep copy of the tree. Segment ids are preserved.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		Source:    t.Source,
		NetModule: t.NetModule,
		segs:      make(map[SegmentID]Segment, len(t.segs)),
		order:     slices.Clone(t.order),
		drops:     slices.Clone(t.drops),
		nextID:    t.nextID,
	}
	for id, s := range t.segs {
		c.segs[id] = s
	}
	return c
}

// add appends a new segment with a fresh id.
func (t *Tree) add(g geom.Segment, parent SegmentID) SegmentID {
	id := t.nextID
	t.nextID++
	t.segs[id] = Segment{Segment: g, ID: id, Parent: parent}
	t.order = append(t.order, id)
	return id
}

func (t *Tree) remove(id SegmentID) {
	delete(t.segs, id)
	t.order = slices.DeleteFunc(t.order, func(x SegmentID) bool { return x == id })
}

// Segment returns the segment with the given id.
func (t *Tree) Segment(id SegmentID) (Segment, bool) {
	s, ok := t.segs[id]
	return s, ok
}

func (t *Tree) mustSegment(id SegmentID) (Segment, error) {
	s, ok := t.segs[id]
	if !ok {
		return Segment{}, structural(ErrUnknownSegment, "segment %d", id)
	}
	return s, nil
}

// Segments returns the segments in insertion order.
func (t *Tree) Segments() []Segment {
	out := make([]Segment, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.segs[id])
	}
	return out
}

// SegmentCount returns the number of segments.
func (t *Tree) SegmentCount() int { return len(t.order) }

// Drops returns a copy of the drops, start drop first.
func (t *Tree) Drops() []Drop { return slices.Clone(t.drops) }

// StartDrop returns the root drop.
func (t *Tree) StartDrop() Drop {
	for _, d := range t.drops {
		if d.Kind == StartDrop {
			return d
		}
	}
	return Drop{Kind: StartDrop, Conn: DirectConnection}
}

// EndDrop returns the end drop carrying the given link id.
func (t *Tree) EndDrop(target string) (Drop, bool) {
	i := t.dropIndex(target)
	if i < 0 {
		return Drop{}, false
	}
	return t.drops[i], true
}

func (t *Tree) dropIndex(target string) int {
	return slices.IndexFunc(t.drops, func(d Drop) bool {
		return d.Kind == EndDrop && d.Target == target
	})
}

func (t *Tree) mustDrop(target string) (int, error) {
	i := t.dropIndex(target)
	if i < 0 {
		return -1, structural(ErrUnknownTarget, "link %q", target)
	}
	return i, nil
}

// Targets returns the link ids of the end drops in drop order.
func (t *Tree) Targets() []string {
	var out []string
	for _, d := range t.drops {
		if d.Kind == EndDrop {
			out = append(out, d.Target)
		}
	}
	return out
}

// Root returns the id of the root segment, or NoSegment for a direct tree.
func (t *Tree) Root() SegmentID {
	for _, id := range t.order {
		if t.segs[id].Parent == NoSegment {
			return id
		}
	}
	return NoSegment
}

// Children returns the segments hanging from id, in insertion order.
func (t *Tree) Children(id SegmentID) []SegmentID {
	var out []SegmentID
	for _, c := range t.order {
		if t.segs[c].Parent == id {
			out = append(out, c)
		}
	}
	return out
}

// IsDirect reports whether the tree has no segments.
func (t *Tree) IsDirect() bool { return len(t.segs) == 0 }

// Shape reports whether the tree is direct, a single path or branching.
func (t *Tree) Shape() Shape {
	switch {
	case t.IsDirect():
		return Direct
	case len(t.Targets()) <= 1:
		return SinglePath
	default:
		return Branching
	}
}

// AttachPoint returns the point a drop hangs from. Direct drops have none.
func (t *Tree) AttachPoint(d Drop) (geom.Point, bool) {
	if d.Conn.IsDirect() {
		return geom.Point{}, false
	}
	s, ok := t.segs[d.Conn.Segment]
	if !ok {
		return geom.Point{}, false
	}
	if d.Conn.Sense == ConnectToStart {
		return s.Start(), true
	}
	return s.EndPoint(), true
}

// PathToRoot returns the segments from the drop's segment up to the root,
// drop side first.
func (t *Tree) PathToRoot(target string) ([]SegmentID, error) {
	i, err := t.mustDrop(target)
	if err != nil {
		return nil, err
	}
	return t.ancestors(t.drops[i].Conn.Segment), nil
}

// ancestors walks parent pointers from id (inclusive). Validated trees are
// acyclic; the walk is bounded anyway.
func (t *Tree) ancestors(id SegmentID) []SegmentID {
	var out []SegmentID
	for id != NoSegment && len(out) <= len(t.segs) {
		s, ok := t.segs[id]
		if !ok {
			break
		}
		out = append(out, id)
		id = s.Parent
	}
	return out
}

// subtree returns id and every segment below it, parents before children.
func (t *Tree) subtree(id SegmentID) []SegmentID {
	out := []SegmentID{id}
	for i := 0; i < len(out); i++ {
		out = append(out, t.Children(out[i])...)
	}
	return out
}

// prune removes non-root leaf segments no drop hangs from, repeatedly, so a
// relocation or drop removal never leaves an orphaned branch behind.
func (t *Tree) prune() {
	for {
		used := make(map[SegmentID]bool, len(t.segs))
		for _, d := range t.drops {
			if !d.Conn.IsDirect() {
				used[d.Conn.Segment] = true
			}
		}
		for _, s := range t.segs {
			if s.Parent != NoSegment {
				used[s.Parent] = true
			}
		}
		removed := false
		for _, id := range slices.Clone(t.order) {
			if !used[id] && t.segs[id].Parent != NoSegment {
				t.remove(id)
				removed = true
			}
		}
		if !removed {
			return
		}
	}
}

// String renders a compact single-line summary for logs.
func (t *Tree) String() string {
	return fmt.Sprintf("tree(%s: %s, %d segments, %d targets)", t.Source, t.Shape(), len(t.segs), len(t.Targets()))
}

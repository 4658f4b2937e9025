package linktree

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/linkroute/pkg/geom"
)

// Validate checks every structural invariant of the tree:
//
//   - exactly one start drop, and end drops with unique, non-empty link ids
//   - a direct tree has only direct drops; a routed tree has none
//   - every drop connection names a segment of the tree
//   - exactly one root segment, which the start drop hangs from
//   - every parent exists and parent links form no cycle
//   - no orphaned subtree (every non-root leaf carries a drop)
//   - every child starts where its parent ends
//
// All violations are reported as STRUCTURAL errors wrapping ErrInvalidTree.
func (t *Tree) Validate() error {
	starts := 0
	seen := make(map[string]bool)
	for _, d := range t.drops {
		switch d.Kind {
		case StartDrop:
			starts++
		case EndDrop:
			if d.Target == "" {
				return structural(ErrInvalidTree, "end drop without link id")
			}
			if seen[d.Target] {
				return structural(ErrInvalidTree, "duplicate link id %q", d.Target)
			}
			seen[d.Target] = true
		default:
			return structural(ErrInvalidTree, "unknown drop kind %d", d.Kind)
		}
	}
	if starts != 1 {
		return structural(ErrInvalidTree, "%d start drops, want exactly 1", starts)
	}

	if t.IsDirect() {
		for _, d := range t.drops {
			if !d.Conn.IsDirect() {
				return structural(ErrInvalidTree, "drop %q references segment %d in a tree without segments", d.Target, d.Conn.Segment)
			}
		}
		if len(seen) != 1 {
			return structural(ErrInvalidTree, "direct tree carries %d links, want 1", len(seen))
		}
		return nil
	}

	root := NoSegment
	for _, id := range t.order {
		s := t.segs[id]
		if s.Parent == NoSegment {
			if root != NoSegment {
				return structural(ErrInvalidTree, "segments %d and %d are both roots", root, id)
			}
			root = id
			continue
		}
		if s.Parent == id {
			return structural(ErrInvalidTree, "segment %d is its own parent", id)
		}
		if _, ok := t.segs[s.Parent]; !ok {
			return structural(ErrInvalidTree, "segment %d has unknown parent %d", id, s.Parent)
		}
	}
	if root == NoSegment {
		return structural(ErrInvalidTree, "no root segment")
	}
	if err := t.checkAcyclic(); err != nil {
		return err
	}

	for _, d := range t.drops {
		if d.Conn.IsDirect() {
			return structural(ErrInvalidTree, "direct drop %q in a routed tree", d.Target)
		}
		if _, ok := t.segs[d.Conn.Segment]; !ok {
			return structural(ErrInvalidTree, "drop %q references unknown segment %d", d.Target, d.Conn.Segment)
		}
	}
	if sd := t.StartDrop(); sd.Conn.Segment != root || sd.Conn.Sense != ConnectToStart {
		return structural(ErrInvalidTree, "start drop must hang from the start of root segment %d", root)
	}

	used := make(map[SegmentID]bool)
	for _, d := range t.drops {
		used[d.Conn.Segment] = true
	}
	for _, id := range t.order {
		s := t.segs[id]
		if s.Parent == NoSegment {
			continue
		}
		if len(t.Children(id)) == 0 && !used[id] {
			return structural(ErrInvalidTree, "segment %d is an orphaned leaf", id)
		}
		if p := t.segs[s.Parent]; !geom.Near(s.Start(), p.EndPoint(), 0) {
			return structural(ErrInvalidTree, "segment %d starts at %v, parent %d ends at %v", id, s.Start(), p.ID, p.EndPoint())
		}
	}
	return nil
}

// checkAcyclic runs a topological sort over the parent links.
func (t *Tree) checkAcyclic() error {
	g := simple.NewDirectedGraph()
	for _, id := range t.order {
		g.AddNode(simple.Node(id))
	}
	for _, id := range t.order {
		if p := t.segs[id].Parent; p != NoSegment {
			g.SetEdge(g.NewEdge(simple.Node(p), simple.Node(id)))
		}
	}
	if _, err := topo.Sort(g); err != nil {
		return structural(ErrInvalidTree, "parent links contain a cycle")
	}
	return nil
}

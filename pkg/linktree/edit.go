package linktree

import (
	"maps"
	"slices"
)

// RetainSinglePath returns a tree holding only the start drop, the end drop
// for target, and the chain of segments from that drop back to the root.
//
// A drop hanging from the start of a segment that is not itself on the kept
// chain would dangle, so it is re-hung from the end of that segment's parent,
// which is the same point.
func (t *Tree) RetainSinglePath(target string) (*Tree, error) {
	i, err := t.mustDrop(target)
	if err != nil {
		return nil, err
	}
	if t.IsDirect() {
		return NewDirectWithStyle(t.Source, target, t.drops[i].Style), nil
	}

	keep := t.drops[i]
	if keep.Conn.Sense == ConnectToStart {
		if s := t.segs[keep.Conn.Segment]; s.Parent != NoSegment {
			keep.Conn = Connection{Segment: s.Parent, Sense: ConnectToEnd}
		}
	}

	chain := make(map[SegmentID]bool)
	for _, id := range t.ancestors(keep.Conn.Segment) {
		chain[id] = true
	}

	out := newTree(t.Source)
	out.NetModule = t.NetModule
	out.nextID = t.nextID
	for _, id := range t.order {
		if chain[id] {
			out.segs[id] = t.segs[id]
			out.order = append(out.order, id)
		}
	}
	out.drops = []Drop{t.StartDrop(), keep}
	return out, nil
}

// NewDirectWithStyle is NewDirect with a draw style on the end drop.
func NewDirectWithStyle(source, target, style string) *Tree {
	t := NewDirect(source, target)
	t.drops[1].Style = style
	return t
}

// DeriveDirect discards every segment and drop but the one for target and
// returns a bare direct tree from newSource. It is used when a bus has
// degenerated to carrying a single link.
func (t *Tree) DeriveDirect(newSource, target string) (*Tree, error) {
	i, err := t.mustDrop(target)
	if err != nil {
		return nil, err
	}
	out := NewDirectWithStyle(newSource, target, t.drops[i].Style)
	out.NetModule = t.NetModule
	return out, nil
}

// ChangeSource returns a copy of the tree attributed to another source.
func (t *Tree) ChangeSource(source string) *Tree {
	c := t.Clone()
	c.Source = source
	return c
}

// MergeComplementaryLinks returns a copy in which the end drop of every old
// link id in oldToNew carries the new id instead. It is used when two links
// turn out to be the same logical link. Segment topology is unchanged.
func (t *Tree) MergeComplementaryLinks(oldToNew map[string]string) (*Tree, error) {
	// Resolve every old id against the receiver before renaming, so chained
	// (a→b, b→c) and swapped (a↔b) maps rename each drop exactly once.
	olds := slices.Sorted(maps.Keys(oldToNew))
	idx := make([]int, len(olds))
	for k, old := range olds {
		i, err := t.mustDrop(old)
		if err != nil {
			return nil, err
		}
		idx[k] = i
	}
	c := t.Clone()
	for k, old := range olds {
		c.drops[idx[k]].Target = oldToNew[old]
	}
	if err := c.checkUniqueTargets(); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveLink returns a copy without the end drop for target. Segments only
// that drop used are pruned. Removing the last link yields an error since a
// tree always carries at least one.
func (t *Tree) RemoveLink(target string) (*Tree, error) {
	i, err := t.mustDrop(target)
	if err != nil {
		return nil, err
	}
	if len(t.Targets()) == 1 {
		return nil, structural(ErrInvalidTree, "cannot remove %q, the last link of the tree", target)
	}
	c := t.Clone()
	c.drops = slices.Delete(c.drops, i, i+1)
	c.prune()
	return c, nil
}

func (t *Tree) checkUniqueTargets() error {
	seen := make(map[string]bool)
	for _, d := range t.drops {
		if d.Kind != EndDrop {
			continue
		}
		if seen[d.Target] {
			return structural(ErrInvalidTree, "duplicate link id %q", d.Target)
		}
		seen[d.Target] = true
	}
	return nil
}

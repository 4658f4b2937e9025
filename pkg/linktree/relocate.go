package linktree

import "slices"

// CanRelocateSegment reports whether segment id may be moved to a different
// parent attachment. Direct trees have nothing to move, the root carries the
// start drop, and the only child of the root is what keeps the tree connected
// to its source, so all three are refused. Any other segment can move.
// Net-module trees hang from a flexible pad, so every segment is movable there.
func (t *Tree) CanRelocateSegment(id SegmentID) (bool, error) {
	if t.IsDirect() {
		return false, nil
	}
	s, err := t.mustSegment(id)
	if err != nil {
		return false, err
	}
	if t.NetModule {
		return true, nil
	}
	if s.Parent == NoSegment {
		return false, nil
	}
	if s.Parent == t.Root() && len(t.Children(s.Parent)) == 1 {
		return false, nil
	}
	return true, nil
}

// RelocateOnTree moves the thing at src so it hangs from dst, in place.
//
// An end-drop src is re-hung from the point dst names (a segment end or start,
// or the root start for AddrStartDrop). A segment src is re-parented onto the
// end of the dst segment and its start moved to that point. Segments no drop
// depends on any more are pruned afterwards.
func (t *Tree) RelocateOnTree(src, dst Address) error {
	switch src.Kind {
	case AddrEndDrop:
		conn, err := t.connectionFor(dst)
		if err != nil {
			return err
		}
		return t.RelocateDrop(src.Target, conn)
	case AddrSegment:
		if dst.Kind != AddrSegment {
			return structural(ErrBadAddress, "segment %d cannot hang from %v", src.Segment, dst)
		}
		onto := dst.Segment
		if dst.Endpoint == EndpointStart {
			ds, err := t.mustSegment(dst.Segment)
			if err != nil {
				return err
			}
			if ds.Parent == NoSegment {
				return structural(ErrBadAddress, "segment %d cannot hang from the start of the root", src.Segment)
			}
			onto = ds.Parent
		}
		return t.RelocateSegment(src.Segment, onto)
	default:
		return structural(ErrBadAddress, "cannot relocate %v", src)
	}
}

func (t *Tree) connectionFor(a Address) (Connection, error) {
	switch a.Kind {
	case AddrStartDrop:
		root := t.Root()
		if root == NoSegment {
			return Connection{}, structural(ErrBadAddress, "start drop of a direct tree")
		}
		return Connection{Segment: root, Sense: ConnectToStart}, nil
	case AddrSegment:
		if _, err := t.mustSegment(a.Segment); err != nil {
			return Connection{}, err
		}
		if a.Endpoint == EndpointStart {
			return Connection{Segment: a.Segment, Sense: ConnectToStart}, nil
		}
		return Connection{Segment: a.Segment, Sense: ConnectToEnd}, nil
	default:
		return Connection{}, structural(ErrBadAddress, "a drop cannot hang from %v", a)
	}
}

// RelocateDrop re-hangs the end drop for target from conn, in place.
func (t *Tree) RelocateDrop(target string, conn Connection) error {
	i, err := t.mustDrop(target)
	if err != nil {
		return err
	}
	if conn.IsDirect() {
		return structural(ErrBadAddress, "drop %q cannot become direct on a routed tree", target)
	}
	if _, err := t.mustSegment(conn.Segment); err != nil {
		return err
	}
	t.drops[i].Conn = conn
	t.prune()
	return nil
}

// RelocateSegment re-parents segment id onto the end of segment onto and moves
// its start there, in place.
func (t *Tree) RelocateSegment(id, onto SegmentID) error {
	s, err := t.mustSegment(id)
	if err != nil {
		return err
	}
	target, err := t.mustSegment(onto)
	if err != nil {
		return err
	}
	if s.Parent == NoSegment {
		return structural(ErrBadAddress, "cannot relocate root segment %d", id)
	}
	if slices.Contains(t.subtree(id), onto) {
		return structural(ErrWouldCycle, "segment %d onto %d", id, onto)
	}
	s.Parent = onto
	s.Segment = s.WithStart(target.EndPoint())
	t.segs[id] = s
	t.prune()
	return nil
}

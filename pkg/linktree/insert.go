package linktree

import (
	"maps"
	"slices"

	"github.com/matzehuels/linkroute/pkg/geom"
)

// InsertRequest describes a node inserted into a bus.
type InsertRequest struct {
	// At is where the node goes: the direct link, the start drop, an end
	// drop, or an interior segment.
	At Address
	// Point is the junction location. It is required for AddrDirect and
	// AddrSegment and ignored otherwise.
	Point *geom.Point
	// NewNode is the inserted node; it becomes the source of the downstream tree.
	NewNode string
	// NewLink is the id of the link from the old source to NewNode.
	NewLink string
	// Remap maps every link that now leaves NewNode instead of the old source
	// to its new id. It must hold exactly those links.
	Remap map[string]string
}

// InsertResult holds the two trees an insertion leaves behind.
type InsertResult struct {
	// Upstream is the old source's tree, now reaching NewNode through NewLink.
	Upstream *Tree
	// Downstream is NewNode's tree carrying the remapped links.
	Downstream *Tree
}

// InsertNode splices a node into the bus and returns the upstream and
// downstream trees. The receiver is not modified.
//
//   - AddrDirect: the direct link becomes a degenerate bus at Point reaching
//     the new node; the old link continues as a direct link from the node.
//   - AddrStartDrop: the whole bus now starts at the new node with every link
//     remapped; upstream is a direct link from the old source to the node.
//   - AddrEndDrop: the drop is redirected to the new node; the old target is
//     reached by a fresh direct link from the node, inheriting the drop style.
//   - AddrSegment: everything below Point moves into a new tree rooted at the
//     node (see NewTreeBelowSegment); upstream gains a drop at Point.
func (t *Tree) InsertNode(req InsertRequest) (InsertResult, error) {
	switch req.At.Kind {
	case AddrDirect:
		return t.insertOnDirect(req)
	case AddrStartDrop:
		return t.insertOnStartDrop(req)
	case AddrEndDrop:
		return t.insertOnEndDrop(req)
	case AddrSegment:
		return t.insertOnSegment(req)
	default:
		return InsertResult{}, structural(ErrBadAddress, "address kind %v", req.At.Kind)
	}
}

func (req InsertRequest) junction() (geom.Point, error) {
	if req.Point == nil {
		return geom.Point{}, structural(ErrBadAddress, "insertion at %v needs a junction point", req.At.Kind)
	}
	return *req.Point, nil
}

func (t *Tree) insertOnDirect(req InsertRequest) (InsertResult, error) {
	if !t.IsDirect() {
		return InsertResult{}, structural(ErrBadAddress, "direct insertion on a routed tree")
	}
	p, err := req.junction()
	if err != nil {
		return InsertResult{}, err
	}
	targets := t.Targets()
	if err := checkRemap(req.Remap, targets); err != nil {
		return InsertResult{}, err
	}
	old, _ := t.EndDrop(targets[0])

	up := newTree(t.Source)
	up.NetModule = t.NetModule
	root := up.add(geom.NewPointSegment(p), NoSegment)
	up.drops = []Drop{
		{Kind: StartDrop, Conn: Connection{root, ConnectToStart}},
		{Kind: EndDrop, Target: req.NewLink, Conn: Connection{root, ConnectToEnd}},
	}
	down := NewDirectWithStyle(req.NewNode, req.Remap[old.Target], old.Style)
	return InsertResult{Upstream: up, Downstream: down}, nil
}

func (t *Tree) insertOnStartDrop(req InsertRequest) (InsertResult, error) {
	if err := checkRemap(req.Remap, t.Targets()); err != nil {
		return InsertResult{}, err
	}
	down := t.Clone()
	down.Source = req.NewNode
	for i := range down.drops {
		if down.drops[i].Kind == EndDrop {
			down.drops[i].Target = req.Remap[down.drops[i].Target]
		}
	}
	if err := down.checkUniqueTargets(); err != nil {
		return InsertResult{}, err
	}
	up := NewDirect(t.Source, req.NewLink)
	up.NetModule = t.NetModule
	return InsertResult{Upstream: up, Downstream: down}, nil
}

func (t *Tree) insertOnEndDrop(req InsertRequest) (InsertResult, error) {
	i, err := t.mustDrop(req.At.Target)
	if err != nil {
		return InsertResult{}, err
	}
	if err := checkRemap(req.Remap, []string{req.At.Target}); err != nil {
		return InsertResult{}, err
	}
	old := t.drops[i]
	up := t.Clone()
	up.drops[i] = Drop{Kind: EndDrop, Target: req.NewLink, Conn: old.Conn}
	if err := up.checkUniqueTargets(); err != nil {
		return InsertResult{}, err
	}
	down := NewDirectWithStyle(req.NewNode, req.Remap[old.Target], old.Style)
	return InsertResult{Upstream: up, Downstream: down}, nil
}

func (t *Tree) insertOnSegment(req InsertRequest) (InsertResult, error) {
	p, err := req.junction()
	if err != nil {
		return InsertResult{}, err
	}
	up, down, junction, err := t.cutBelow(req.At.Segment, p, req.NewNode, req.Remap)
	if err != nil {
		return InsertResult{}, err
	}
	up.drops = append(up.drops, Drop{Kind: EndDrop, Target: req.NewLink, Conn: Connection{junction, ConnectToEnd}})
	if err := up.checkUniqueTargets(); err != nil {
		return InsertResult{}, err
	}
	return InsertResult{Upstream: up, Downstream: down}, nil
}

// NewTreeBelowSegment cuts the bus at point p on segment id and moves
// everything below the cut into a new tree whose source is newSource and
// whose degenerate root sits at p. Moved links are renamed through remap,
// which must hold exactly the moved link ids.
//
// It returns the upstream remainder and the new downstream tree. The
// remainder still ends at p but carries no drop there; callers add one.
func (t *Tree) NewTreeBelowSegment(id SegmentID, p geom.Point, newSource string, remap map[string]string) (rest, below *Tree, err error) {
	rest, below, _, err = t.cutBelow(id, p, newSource, remap)
	return rest, below, err
}

func (t *Tree) cutBelow(id SegmentID, p geom.Point, newSource string, remap map[string]string) (rest, below *Tree, junction SegmentID, err error) {
	if _, err := t.mustSegment(id); err != nil {
		return nil, nil, NoSegment, err
	}
	rest = t.Clone()
	junction, err = rest.splitSegment(id, p)
	if err != nil {
		return nil, nil, NoSegment, err
	}
	at := rest.segs[junction].EndPoint()

	moved := make(map[SegmentID]bool)
	var movedOrder []SegmentID
	for _, c := range rest.Children(junction) {
		for _, s := range rest.subtree(c) {
			moved[s] = true
			movedOrder = append(movedOrder, s)
		}
	}
	var movedTargets []string
	for _, d := range rest.drops {
		if d.Kind != EndDrop {
			continue
		}
		if moved[d.Conn.Segment] || (d.Conn.Segment == junction && d.Conn.Sense == ConnectToEnd) {
			movedTargets = append(movedTargets, d.Target)
		}
	}
	if len(movedTargets) == 0 {
		return nil, nil, NoSegment, structural(ErrInvalidTree, "no link hangs below %v on segment %d", p, id)
	}
	if err := checkRemap(remap, movedTargets); err != nil {
		return nil, nil, NoSegment, err
	}

	below = newTree(newSource)
	below.NetModule = t.NetModule
	root := below.add(geom.NewPointSegment(at), NoSegment)
	below.drops = []Drop{{Kind: StartDrop, Conn: Connection{root, ConnectToStart}}}
	ids := map[SegmentID]SegmentID{junction: root}
	for _, sid := range movedOrder {
		s := rest.segs[sid]
		ids[sid] = below.add(s.Segment, ids[s.Parent])
	}

	var kept []Drop
	for _, d := range rest.drops {
		isMoved := d.Kind == EndDrop && (moved[d.Conn.Segment] || (d.Conn.Segment == junction && d.Conn.Sense == ConnectToEnd))
		if !isMoved {
			kept = append(kept, d)
			continue
		}
		d.Target = remap[d.Target]
		d.Conn.Segment = ids[d.Conn.Segment]
		below.drops = append(below.drops, d)
	}
	rest.drops = kept
	for _, sid := range slices.Clone(rest.order) {
		if moved[sid] {
			rest.remove(sid)
		}
	}
	return rest, below, junction, nil
}

// checkRemap fails unless remap's keys are exactly want.
func checkRemap(remap map[string]string, want []string) error {
	if len(remap) != len(want) {
		return structural(ErrBadRemap, "remap has keys %v, want %v", slices.Sorted(maps.Keys(remap)), want)
	}
	for _, w := range want {
		if v, ok := remap[w]; !ok || v == "" {
			return structural(ErrBadRemap, "remap is missing link %q", w)
		}
	}
	return nil
}

package layout

import (
	"fmt"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/geom"
	"github.com/matzehuels/linkroute/pkg/linktree"
)

// =============================================================================
// Tree Document
// =============================================================================

// TreeDoc is the persisted form of a linktree.Tree.
//
// Segments and drops keep their order, ids and parents exactly, so
// FromTree → encode → decode → ToTree → FromTree → encode reproduces the
// first encoding byte for byte.
type TreeDoc struct {
	Source    string       `json:"source" bson:"source" toml:"source"`
	NetModule bool         `json:"net_module,omitempty" bson:"net_module,omitempty" toml:"net_module,omitempty"`
	Segments  []SegmentDoc `json:"segments" bson:"segments" toml:"segments"`
	Drops     []DropDoc    `json:"drops" bson:"drops" toml:"drops"`
}

// PointDoc is a pixel coordinate.
type PointDoc struct {
	X float64 `json:"x" bson:"x" toml:"x"`
	Y float64 `json:"y" bson:"y" toml:"y"`
}

func pointDoc(p geom.Point) PointDoc { return PointDoc{X: p.X, Y: p.Y} }

// Point converts back to a geom.Point.
func (p PointDoc) Point() geom.Point { return geom.Pt(p.X, p.Y) }

// SegmentDoc is one segment. Parent is nil for the root, End is nil for a
// degenerate (single point) segment.
type SegmentDoc struct {
	ID     int       `json:"id" bson:"id" toml:"id"`
	Parent *int      `json:"parent,omitempty" bson:"parent,omitempty" toml:"parent,omitempty"`
	Start  PointDoc  `json:"start" bson:"start" toml:"start"`
	End    *PointDoc `json:"end,omitempty" bson:"end,omitempty" toml:"end,omitempty"`
	Style  string    `json:"style,omitempty" bson:"style,omitempty" toml:"style,omitempty"`
}

// DropDoc is one drop. Segment is nil (and Sense "none") for the drops of a
// direct tree.
type DropDoc struct {
	Kind    string `json:"kind" bson:"kind" toml:"kind"`
	Target  string `json:"target,omitempty" bson:"target,omitempty" toml:"target,omitempty"`
	Segment *int   `json:"segment,omitempty" bson:"segment,omitempty" toml:"segment,omitempty"`
	Sense   string `json:"sense" bson:"sense" toml:"sense"`
	Style   string `json:"style,omitempty" bson:"style,omitempty" toml:"style,omitempty"`
}

// FromTree converts a tree to its document form.
func FromTree(t *linktree.Tree) TreeDoc {
	segs := t.Segments()
	out := TreeDoc{
		Source:    t.Source,
		NetModule: t.NetModule,
		Segments:  make([]SegmentDoc, len(segs)),
		Drops:     make([]DropDoc, 0, len(t.Drops())),
	}
	for i, s := range segs {
		d := SegmentDoc{ID: int(s.ID), Start: pointDoc(s.Start()), Style: s.Style}
		if !s.IsRoot() {
			p := int(s.Parent)
			d.Parent = &p
		}
		if end, ok := s.End(); ok {
			e := pointDoc(end)
			d.End = &e
		}
		out.Segments[i] = d
	}
	for _, d := range t.Drops() {
		dd := DropDoc{Kind: d.Kind.String(), Target: d.Target, Sense: d.Conn.Sense.String(), Style: d.Style}
		if !d.Conn.IsDirect() {
			id := int(d.Conn.Segment)
			dd.Segment = &id
		}
		out.Drops = append(out.Drops, dd)
	}
	return out
}

// ToTree rebuilds and validates the tree a document describes.
func ToTree(d TreeDoc) (*linktree.Tree, error) {
	segs := make([]linktree.Segment, len(d.Segments))
	for i, sd := range d.Segments {
		s := linktree.Segment{ID: linktree.SegmentID(sd.ID), Parent: linktree.NoSegment}
		if sd.Parent != nil {
			s.Parent = linktree.SegmentID(*sd.Parent)
		}
		if sd.End != nil {
			s.Segment = geom.NewSegment(sd.Start.Point(), sd.End.Point())
		} else {
			s.Segment = geom.NewPointSegment(sd.Start.Point())
		}
		s.Style = sd.Style
		segs[i] = s
	}

	drops := make([]linktree.Drop, len(d.Drops))
	for i, dd := range d.Drops {
		drop, err := dd.drop()
		if err != nil {
			return nil, fmt.Errorf("drop %d: %w", i, err)
		}
		drops[i] = drop
	}

	t, err := linktree.Build(d.Source, d.NetModule, segs, drops)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", d.Source, err)
	}
	return t, nil
}

func (dd DropDoc) drop() (linktree.Drop, error) {
	out := linktree.Drop{Target: dd.Target, Style: dd.Style}
	switch dd.Kind {
	case "start":
		out.Kind = linktree.StartDrop
	case "end":
		out.Kind = linktree.EndDrop
	default:
		return out, lrerrors.New(lrerrors.ErrCodeInvalidFormat, "unknown drop kind %q", dd.Kind)
	}
	sense, ok := linktree.ParseSense(dd.Sense)
	if !ok {
		return out, lrerrors.New(lrerrors.ErrCodeInvalidFormat, "unknown connection sense %q", dd.Sense)
	}
	switch {
	case sense == linktree.ConnectNone && dd.Segment == nil:
		out.Conn = linktree.DirectConnection
	case sense != linktree.ConnectNone && dd.Segment != nil:
		out.Conn = linktree.Connection{Segment: linktree.SegmentID(*dd.Segment), Sense: sense}
	default:
		return out, lrerrors.New(lrerrors.ErrCodeInvalidFormat, "sense %q does not match segment presence", dd.Sense)
	}
	return out, nil
}

// =============================================================================
// Result Document
// =============================================================================

// Result is the output of one routing pass over a scenario.
type Result struct {
	PassID   string    `json:"pass_id" bson:"pass_id" toml:"pass_id"`
	Scenario string    `json:"scenario,omitempty" bson:"scenario,omitempty" toml:"scenario,omitempty"`
	Axis     string    `json:"axis" bson:"axis" toml:"axis"`
	Trees    []TreeDoc `json:"trees" bson:"trees" toml:"trees"`
	Warnings []string  `json:"warnings,omitempty" bson:"warnings,omitempty" toml:"warnings,omitempty"`
}

// Tree returns the document of the tree for source.
func (r *Result) Tree(source string) (TreeDoc, bool) {
	for _, t := range r.Trees {
		if t.Source == source {
			return t, true
		}
	}
	return TreeDoc{}, false
}

// SegmentCount sums the segments of every tree.
func (r *Result) SegmentCount() int {
	n := 0
	for _, t := range r.Trees {
		n += len(t.Segments)
	}
	return n
}

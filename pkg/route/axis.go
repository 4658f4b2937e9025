package route

import (
	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/geom"
	"github.com/matzehuels/linkroute/pkg/grid"
)

// Axis is the direction risers travel in.
//
// For Vertical, risers run up and down the source column, crossing rows,
// and runners fan out horizontally at the level of each target row.
// Horizontal is the same algorithm rotated: risers cross columns and runners
// run vertically.
//
// The router works in major/minor terms: the major index is the one risers
// cross (the row for Vertical) and the minor index is the other.
type Axis int

const (
	Vertical Axis = iota
	Horizontal
)

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// ParseAxis is the inverse of Axis.String. The empty string is Vertical.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "", "vertical":
		return Vertical, nil
	case "horizontal":
		return Horizontal, nil
	}
	return Vertical, lrerrors.New(lrerrors.ErrCodeInvalidInput, "unknown axis %q (want vertical or horizontal)", s)
}

// split returns the (major, minor) grid indices of cell (r, c).
func (a Axis) split(r, c int) (major, minor int) {
	if a == Horizontal {
		return c, r
	}
	return r, c
}

// coords returns the (major, minor) pixel coordinates of p.
func (a Axis) coords(p geom.Point) (major, minor float64) {
	if a == Horizontal {
		return p.X, p.Y
	}
	return p.Y, p.X
}

// point builds a point from major and minor pixel coordinates.
func (a Axis) point(major, minor float64) geom.Point {
	if a == Horizontal {
		return geom.Pt(major, minor)
	}
	return geom.Pt(minor, major)
}

// edge returns the offset of the leading edge of major index i from the
// grid origin.
func (a Axis) edge(g *grid.Grid, i int) float64 {
	if a == Horizontal {
		return g.ColEdge(i)
	}
	return g.RowEdge(i)
}

// channelSlot is the slot of source in the channel of major index i.
func (a Axis) channelSlot(s *SlotTracker, i int, source string) int {
	if a == Horizontal {
		return s.ColumnSlot(i, source)
	}
	return s.RowSlot(i, source)
}

// riserSlot is the slot of source in its own minor lane.
func (a Axis) riserSlot(s *SlotTracker, i int, source string) int {
	if a == Horizontal {
		return s.RowSlot(i, source)
	}
	return s.ColumnSlot(i, source)
}

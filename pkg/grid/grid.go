package grid

import (
	"errors"
	"math"
	"slices"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/geom"
)

var (
	// ErrOutOfRange is wrapped when a row or column index is outside the grid.
	ErrOutOfRange = errors.New("cell index out of range")

	// ErrDuplicateNode is wrapped when a node id would occupy two cells.
	ErrDuplicateNode = errors.New("node already placed")

	// ErrUnknownNode is wrapped when a node id is not placed in the grid.
	ErrUnknownNode = errors.New("node not in grid")

	// ErrCycle is wrapped by [Grid.ComputeTopoOrder] when the edges cannot be
	// ordered.
	ErrCycle = errors.New("node edges contain a cycle")
)

// Aspect ratio targeted by NewPacked, rows:cols.
const (
	aspectRows = 3
	aspectCols = 4
)

// Grid is a row/column placement of node ids with configurable pitches.
//
// Rows grow downwards and columns to the right. Cell (r, c) spans
// [ColEdge(c), ColEdge(c+1)) horizontally and [RowEdge(r), RowEdge(r+1))
// vertically, relative to the origin. Pitches are snapped to geom.GridPitch.
//
// A Grid is not safe for concurrent use.
type Grid struct {
	cells      [][]string
	cols       int
	rowPitch   float64
	colPitch   float64
	rowPitches []float64 // nil until a row pitch is overridden
	colPitches []float64 // nil until a column pitch is overridden

	// Origin is the pixel location of the grid's top-left corner, used by
	// Location.
	Origin geom.Point
	// RefID and RefPoint optionally pin one node to a pixel location.
	RefID    string
	RefPoint geom.Point
	// TopoOrder is the node order computed by ComputeTopoOrder, if any.
	TopoOrder []string
}

// New creates an empty grid with uniform pitches.
func New(rows, cols int, rowPitch, colPitch float64) (*Grid, error) {
	if rows < 0 || cols < 0 {
		return nil, lrerrors.New(lrerrors.ErrCodeInvalidInput, "grid size %dx%d is negative", rows, cols)
	}
	if err := lrerrors.ValidatePitch("row pitch", rowPitch, geom.GridPitch); err != nil {
		return nil, err
	}
	if err := lrerrors.ValidatePitch("column pitch", colPitch, geom.GridPitch); err != nil {
		return nil, err
	}
	g := &Grid{
		cells:    make([][]string, rows),
		cols:     cols,
		rowPitch: geom.SnapValue(rowPitch),
		colPitch: geom.SnapValue(colPitch),
	}
	for r := range g.cells {
		g.cells[r] = make([]string, cols)
	}
	return g, nil
}

// FromCells creates a grid from a 2D layout of node ids; "" marks an empty
// cell. Ragged rows are padded with empty cells.
func FromCells(cells [][]string, rowPitch, colPitch float64) (*Grid, error) {
	cols := 0
	for _, row := range cells {
		cols = max(cols, len(row))
	}
	g, err := New(len(cells), cols, rowPitch, colPitch)
	if err != nil {
		return nil, err
	}
	for r, row := range cells {
		for c, id := range row {
			if id == "" {
				continue
			}
			if err := g.SetCell(r, c, id); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// PackedSize returns the row and column counts NewPacked uses for n nodes:
// the smallest near-3:4 rectangle that holds them.
func PackedSize(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n) * aspectCols / aspectRows)))
	rows = (n + cols - 1) / cols
	return rows, cols
}

// NewPacked lays ids out row-major in a near-3:4 rectangle sized so the whole
// grid spans width x height pixels.
func NewPacked(ids []string, width, height float64) (*Grid, error) {
	rows, cols := PackedSize(len(ids))
	if rows == 0 {
		return New(0, 0, geom.GridPitch, geom.GridPitch)
	}
	rowPitch := math.Max(geom.SnapValue(height/float64(rows)), geom.GridPitch)
	colPitch := math.Max(geom.SnapValue(width/float64(cols)), geom.GridPitch)
	return packRowMajor(ids, rows, cols, rowPitch, colPitch)
}

// NewVariable uses NewPacked's row and column counts with fixed pitches.
func NewVariable(ids []string, rowPitch, colPitch float64) (*Grid, error) {
	rows, cols := PackedSize(len(ids))
	return packRowMajor(ids, rows, cols, rowPitch, colPitch)
}

// NewSingleRow places every id in one row.
func NewSingleRow(ids []string, rowPitch, colPitch float64) (*Grid, error) {
	rows := 1
	if len(ids) == 0 {
		rows = 0
	}
	return packRowMajor(ids, rows, len(ids), rowPitch, colPitch)
}

func packRowMajor(ids []string, rows, cols int, rowPitch, colPitch float64) (*Grid, error) {
	g, err := New(rows, cols, rowPitch, colPitch)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		if err := g.SetCell(i/cols, i%cols, id); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return len(g.cells) }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

func (g *Grid) inRange(r, c int) bool {
	return r >= 0 && r < g.Rows() && c >= 0 && c < g.Cols()
}

func outOfRange(r, c int) error {
	return lrerrors.Wrap(lrerrors.ErrCodeStructural, ErrOutOfRange, "cell (%d,%d)", r, c)
}

// CellValue returns the node id in cell (r, c). ok is false for an empty or
// out-of-range cell.
func (g *Grid) CellValue(r, c int) (id string, ok bool) {
	if !g.inRange(r, c) {
		return "", false
	}
	id = g.cells[r][c]
	return id, id != ""
}

// SetCell places id in cell (r, c). An empty id clears the cell.
func (g *Grid) SetCell(r, c int, id string) error {
	if !g.inRange(r, c) {
		return outOfRange(r, c)
	}
	if id != "" {
		if pr, pc, ok := g.Locate(id); ok && (pr != r || pc != c) {
			return lrerrors.Wrap(lrerrors.ErrCodeStructural, ErrDuplicateNode, "%q at (%d,%d)", id, pr, pc)
		}
	}
	g.cells[r][c] = id
	return nil
}

// Locate returns the cell holding id.
func (g *Grid) Locate(id string) (r, c int, ok bool) {
	for r, row := range g.cells {
		if c := slices.Index(row, id); c >= 0 && id != "" {
			return r, c, true
		}
	}
	return -1, -1, false
}

// Nodes returns every placed id in row-major order.
func (g *Grid) Nodes() []string {
	var out []string
	for _, row := range g.cells {
		for _, id := range row {
			if id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

// RowPitch returns the height of row r.
func (g *Grid) RowPitch(r int) float64 {
	if g.rowPitches != nil && r >= 0 && r < len(g.rowPitches) {
		return g.rowPitches[r]
	}
	return g.rowPitch
}

// ColPitch returns the width of column c.
func (g *Grid) ColPitch(c int) float64 {
	if g.colPitches != nil && c >= 0 && c < len(g.colPitches) {
		return g.colPitches[c]
	}
	return g.colPitch
}

// SetRowPitch overrides the height of one row. The first override allocates
// the per-row table, filled with the uniform pitch.
func (g *Grid) SetRowPitch(r int, pitch float64) error {
	if r < 0 || r >= g.Rows() {
		return outOfRange(r, 0)
	}
	if err := lrerrors.ValidatePitch("row pitch", pitch, geom.GridPitch); err != nil {
		return err
	}
	if g.rowPitches == nil {
		g.rowPitches = uniform(g.Rows(), g.rowPitch)
	}
	g.rowPitches[r] = geom.SnapValue(pitch)
	return nil
}

// SetColPitch overrides the width of one column, see SetRowPitch.
func (g *Grid) SetColPitch(c int, pitch float64) error {
	if c < 0 || c >= g.Cols() {
		return outOfRange(0, c)
	}
	if err := lrerrors.ValidatePitch("column pitch", pitch, geom.GridPitch); err != nil {
		return err
	}
	if g.colPitches == nil {
		g.colPitches = uniform(g.Cols(), g.colPitch)
	}
	g.colPitches[c] = geom.SnapValue(pitch)
	return nil
}

// HasOverrides reports whether any per-row or per-column pitch is set.
func (g *Grid) HasOverrides() bool { return g.rowPitches != nil || g.colPitches != nil }

// RowPitches returns every row's pitch.
func (g *Grid) RowPitches() []float64 {
	out := make([]float64, g.Rows())
	for r := range out {
		out[r] = g.RowPitch(r)
	}
	return out
}

// ColPitches returns every column's pitch.
func (g *Grid) ColPitches() []float64 {
	out := make([]float64, g.Cols())
	for c := range out {
		out[c] = g.ColPitch(c)
	}
	return out
}

func uniform(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// RowEdge returns the offset of the top edge of row r from the origin.
// r may equal Rows() for the bottom edge of the grid.
func (g *Grid) RowEdge(r int) float64 {
	y := 0.0
	for i := 0; i < r; i++ {
		y += g.RowPitch(i)
	}
	return y
}

// ColEdge returns the offset of the left edge of column c from the origin.
func (g *Grid) ColEdge(c int) float64 {
	x := 0.0
	for i := 0; i < c; i++ {
		x += g.ColPitch(i)
	}
	return x
}

// GridLocation returns the snapped pixel center of cell (r, c) relative to
// origin. ok is false when the cell is empty.
func (g *Grid) GridLocation(r, c int, origin geom.Point) (geom.Point, bool) {
	if _, ok := g.CellValue(r, c); !ok {
		return geom.Point{}, false
	}
	return geom.Snap(geom.Pt(
		origin.X+g.ColEdge(c)+g.ColPitch(c)/2,
		origin.Y+g.RowEdge(r)+g.RowPitch(r)/2,
	)), true
}

// Location returns the pixel location of a node, honouring the reference
// pin when one is set and Origin otherwise.
func (g *Grid) Location(id string) (geom.Point, bool) {
	r, c, ok := g.Locate(id)
	if !ok {
		return geom.Point{}, false
	}
	return g.GridLocation(r, c, g.EffectiveOrigin())
}

// SetReference pins node id to pixel location p.
func (g *Grid) SetReference(id string, p geom.Point) error {
	if _, _, ok := g.Locate(id); !ok {
		return lrerrors.Wrap(lrerrors.ErrCodeStructural, ErrUnknownNode, "reference %q", id)
	}
	g.RefID, g.RefPoint = id, p
	return nil
}

// EffectiveOrigin returns the origin that puts the reference node at its
// pinned point, or Origin when no reference is set (or it left the grid).
func (g *Grid) EffectiveOrigin() geom.Point {
	if g.RefID == "" {
		return g.Origin
	}
	r, c, ok := g.Locate(g.RefID)
	if !ok {
		return g.Origin
	}
	at, _ := g.GridLocation(r, c, geom.Point{})
	return geom.Snap(geom.Sub(g.RefPoint, at))
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := *g
	c.cells = make([][]string, len(g.cells))
	for r, row := range g.cells {
		c.cells[r] = slices.Clone(row)
	}
	c.rowPitches = slices.Clone(g.rowPitches)
	c.colPitches = slices.Clone(g.colPitches)
	c.TopoOrder = slices.Clone(g.TopoOrder)
	return &c
}

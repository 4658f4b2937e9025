package grid

import "slices"

// Structural resizes keep Origin, RefID, RefPoint and TopoOrder as they are:
// those are keyed by node id, not by row or column index.

// DropRow removes row r and its pitch override.
func (g *Grid) DropRow(r int) error {
	if r < 0 || r >= g.Rows() {
		return outOfRange(r, 0)
	}
	g.cells = slices.Delete(g.cells, r, r+1)
	if g.rowPitches != nil {
		g.rowPitches = slices.Delete(g.rowPitches, r, r+1)
	}
	return nil
}

// DropColumn removes column c and its pitch override.
func (g *Grid) DropColumn(c int) error {
	if c < 0 || c >= g.Cols() {
		return outOfRange(0, c)
	}
	for r := range g.cells {
		g.cells[r] = slices.Delete(g.cells[r], c, c+1)
	}
	g.cols--
	if g.colPitches != nil {
		g.colPitches = slices.Delete(g.colPitches, c, c+1)
	}
	return nil
}

// Compress drops every empty row and column. It reports how many of each
// were removed.
func (g *Grid) Compress() (rows, cols int) {
	for r := g.Rows() - 1; r >= 0; r-- {
		if g.rowEmpty(r) {
			_ = g.DropRow(r)
			rows++
		}
	}
	for c := g.Cols() - 1; c >= 0; c-- {
		if g.colEmpty(c) {
			_ = g.DropColumn(c)
			cols++
		}
	}
	return rows, cols
}

func (g *Grid) rowEmpty(r int) bool {
	for _, id := range g.cells[r] {
		if id != "" {
			return false
		}
	}
	return true
}

func (g *Grid) colEmpty(c int) bool {
	for _, row := range g.cells {
		if row[c] != "" {
			return false
		}
	}
	return true
}

// ExpandRows inserts n empty rows before row at; at may equal Rows() to
// append. New rows take the uniform pitch.
func (g *Grid) ExpandRows(at, n int) error {
	if at < 0 || at > g.Rows() || n < 0 {
		return outOfRange(at, 0)
	}
	fresh := make([][]string, n)
	for i := range fresh {
		fresh[i] = make([]string, g.Cols())
	}
	g.cells = slices.Insert(g.cells, at, fresh...)
	if g.rowPitches != nil {
		g.rowPitches = slices.Insert(g.rowPitches, at, uniform(n, g.rowPitch)...)
	}
	return nil
}

// ExpandColumns inserts n empty columns before column at; at may equal
// Cols() to append.
func (g *Grid) ExpandColumns(at, n int) error {
	if at < 0 || at > g.Cols() || n < 0 {
		return outOfRange(0, at)
	}
	for r := range g.cells {
		g.cells[r] = slices.Insert(g.cells[r], at, make([]string, n)...)
	}
	g.cols += n
	if g.colPitches != nil {
		g.colPitches = slices.Insert(g.colPitches, at, uniform(n, g.colPitch)...)
	}
	return nil
}

package grid

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/geom"
)

func mustGrid(t *testing.T, cells [][]string, rowPitch, colPitch float64) *Grid {
	t.Helper()
	g, err := FromCells(cells, rowPitch, colPitch)
	if err != nil {
		t.Fatalf("FromCells() error: %v", err)
	}
	return g
}

func TestGridLocationMatchesCellValue(t *testing.T) {
	g := mustGrid(t, [][]string{
		{"a", "", "b"},
		{"", "c", ""},
	}, 300, 200)
	origin := geom.Pt(40, 70)

	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			_, hasCell := g.CellValue(r, c)
			loc, hasLoc := g.GridLocation(r, c, origin)
			if hasCell != hasLoc {
				t.Errorf("(%d,%d): CellValue ok = %v, GridLocation ok = %v", r, c, hasCell, hasLoc)
			}
			if !hasLoc {
				continue
			}
			wantX := geom.SnapValue(origin.X + 200*(float64(c)+0.5))
			wantY := geom.SnapValue(origin.Y + 300*(float64(r)+0.5))
			if loc.X != wantX || loc.Y != wantY {
				t.Errorf("GridLocation(%d,%d) = %v, want (%g,%g)", r, c, loc, wantX, wantY)
			}
		}
	}
}

func TestPitchOverrides(t *testing.T) {
	g := mustGrid(t, [][]string{{"a", "b", "c"}, {"d", "e", "f"}}, 100, 100)
	if g.HasOverrides() {
		t.Fatal("fresh grid should not allocate override tables")
	}

	if err := g.SetColPitch(1, 304); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{100, 300, 100}, g.ColPitches()); diff != "" {
		t.Errorf("ColPitches() mismatch (-want +got):\n%s", diff)
	}
	if g.rowPitches != nil {
		t.Error("column override allocated the row table")
	}

	loc, _ := g.GridLocation(0, 2, geom.Point{})
	if loc.X != 100+300+50 {
		t.Errorf("GridLocation(0,2).X = %v, want 450", loc.X)
	}

	if err := g.SetRowPitch(5, 100); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetRowPitch(5) error = %v, want ErrOutOfRange", err)
	}
	if err := g.SetRowPitch(0, 3); !lrerrors.Is(err, lrerrors.ErrCodeInvalidInput) {
		t.Errorf("SetRowPitch(0, 3) error = %v, want INVALID_INPUT", err)
	}
}

func TestPackedConstruction(t *testing.T) {
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%d", i)
	}

	tests := []struct {
		n          int
		rows, cols int
	}{
		{1, 1, 2},
		{10, 3, 4},
		{12, 3, 4},
		{0, 0, 0},
	}
	for _, tt := range tests {
		rows, cols := PackedSize(tt.n)
		if rows != tt.rows || cols != tt.cols {
			t.Errorf("PackedSize(%d) = %dx%d, want %dx%d", tt.n, rows, cols, tt.rows, tt.cols)
		}
	}

	g, err := NewPacked(ids, 800, 600)
	if err != nil {
		t.Fatal(err)
	}
	if g.Rows() != 3 || g.Cols() != 4 {
		t.Fatalf("NewPacked size = %dx%d, want 3x4", g.Rows(), g.Cols())
	}
	if g.RowPitch(0) != 200 || g.ColPitch(0) != 200 {
		t.Errorf("NewPacked pitches = %v/%v, want 200/200", g.RowPitch(0), g.ColPitch(0))
	}
	if r, c, _ := g.Locate("n5"); r != 1 || c != 1 {
		t.Errorf("Locate(n5) = (%d,%d), want (1,1)", r, c)
	}

	v, err := NewVariable(ids, 150, 250)
	if err != nil {
		t.Fatal(err)
	}
	if v.Rows() != 3 || v.Cols() != 4 || v.RowPitch(0) != 150 {
		t.Errorf("NewVariable = %dx%d pitch %v", v.Rows(), v.Cols(), v.RowPitch(0))
	}

	s, err := NewSingleRow(ids[:3], 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if s.Rows() != 1 || s.Cols() != 3 {
		t.Errorf("NewSingleRow = %dx%d, want 1x3", s.Rows(), s.Cols())
	}
}

func TestSetCellRejectsDuplicates(t *testing.T) {
	g := mustGrid(t, [][]string{{"a", ""}}, 100, 100)
	if err := g.SetCell(0, 1, "a"); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("SetCell duplicate error = %v, want ErrDuplicateNode", err)
	}
	if err := g.SetCell(3, 3, "b"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetCell out of range error = %v, want ErrOutOfRange", err)
	}
	if err := g.SetCell(0, 0, ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := g.CellValue(0, 0); ok {
		t.Error("cleared cell still has a value")
	}
}

func TestResizeKeepsMetadata(t *testing.T) {
	g := mustGrid(t, [][]string{
		{"a", "", "b"},
		{"", "", ""},
		{"c", "", "d"},
	}, 100, 100)
	if err := g.SetRowPitch(2, 200); err != nil {
		t.Fatal(err)
	}
	if err := g.SetReference("d", geom.Pt(1000, 1000)); err != nil {
		t.Fatal(err)
	}
	if _, err := g.ComputeTopoOrder([]Edge{{"a", "b"}}); err != nil {
		t.Fatal(err)
	}
	before, _ := g.Location("d")
	order := g.TopoOrder

	rows, cols := g.Compress()
	if rows != 1 || cols != 1 {
		t.Errorf("Compress() removed %d rows, %d cols; want 1, 1", rows, cols)
	}
	if g.Rows() != 2 || g.Cols() != 2 {
		t.Fatalf("size after Compress = %dx%d, want 2x2", g.Rows(), g.Cols())
	}
	if diff := cmp.Diff([]float64{100, 200}, g.RowPitches()); diff != "" {
		t.Errorf("row pitches mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(order, g.TopoOrder); diff != "" {
		t.Errorf("TopoOrder changed (-want +got):\n%s", diff)
	}
	after, _ := g.Location("d")
	if after != before || after != geom.Pt(1000, 1000) {
		t.Errorf("reference node moved: before %v, after %v", before, after)
	}

	if err := g.ExpandRows(1, 2); err != nil {
		t.Fatal(err)
	}
	if err := g.ExpandColumns(2, 1); err != nil {
		t.Fatal(err)
	}
	if g.Rows() != 4 || g.Cols() != 3 {
		t.Errorf("size after expand = %dx%d, want 4x3", g.Rows(), g.Cols())
	}
	if diff := cmp.Diff([]float64{100, 100, 100, 200}, g.RowPitches()); diff != "" {
		t.Errorf("row pitches after expand mismatch (-want +got):\n%s", diff)
	}
	if r, c, _ := g.Locate("c"); r != 3 || c != 0 {
		t.Errorf("Locate(c) = (%d,%d), want (3,0)", r, c)
	}

	if err := g.DropRow(9); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("DropRow(9) error = %v, want ErrOutOfRange", err)
	}
	if err := g.DropColumn(2); err != nil {
		t.Fatal(err)
	}
	if g.Cols() != 2 {
		t.Errorf("Cols() after DropColumn = %d, want 2", g.Cols())
	}
}

func TestRowAndColEdges(t *testing.T) {
	g := mustGrid(t, [][]string{{"a"}, {"b"}, {"c"}, {"d"}}, 300, 100)
	for r, want := range []float64{0, 300, 600, 900, 1200} {
		if got := g.RowEdge(r); got != want {
			t.Errorf("RowEdge(%d) = %v, want %v", r, got, want)
		}
	}
	if got := g.ColEdge(1); got != 100 {
		t.Errorf("ColEdge(1) = %v, want 100", got)
	}
}

func TestBuildPattern(t *testing.T) {
	g := mustGrid(t, [][]string{{"a", ""}, {"", "b"}}, 100, 100)
	p := g.BuildPattern()
	if p.Width != 20 || p.Height != 20 {
		t.Errorf("pattern size = %dx%d, want 20x20", p.Width, p.Height)
	}
	if p.Occupied() != 2 {
		t.Errorf("Occupied() = %d, want 2", p.Occupied())
	}
	if id, ok := p.At(5, 5); !ok || id != "a" {
		t.Errorf("At(5,5) = %q, %v; want a", id, ok)
	}
	want := []Tile{{X: 5, Y: 5, Node: "a"}, {X: 15, Y: 15, Node: "b"}}
	if diff := cmp.Diff(want, p.Tiles()); diff != "" {
		t.Errorf("Tiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeTopoOrder(t *testing.T) {
	g := mustGrid(t, [][]string{{"c", "b", "a"}}, 100, 100)

	order, err := g.ComputeTopoOrder([]Edge{{"a", "b"}, {"b", "c"}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	if _, err := g.ComputeTopoOrder([]Edge{{"a", "b"}, {"b", "a"}}); !errors.Is(err, ErrCycle) {
		t.Errorf("cycle error = %v, want ErrCycle", err)
	}
	if _, err := g.ComputeTopoOrder([]Edge{{"a", "zz"}}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown node error = %v, want ErrUnknownNode", err)
	}
}

func TestClone(t *testing.T) {
	g := mustGrid(t, [][]string{{"a", "b"}}, 100, 100)
	c := g.Clone()
	if err := c.SetCell(0, 0, ""); err != nil {
		t.Fatal(err)
	}
	if err := c.SetColPitch(0, 500); err != nil {
		t.Fatal(err)
	}
	if _, ok := g.CellValue(0, 0); !ok {
		t.Error("clone shares cells with the original")
	}
	if g.HasOverrides() {
		t.Error("clone shares pitch tables with the original")
	}
}

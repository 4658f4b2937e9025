package grid

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/linkroute/pkg/geom"
)

// PatternUnit is the pixel size of one pattern tile.
const PatternUnit = geom.GridPitch

// Tile is one occupied pattern tile.
type Tile struct {
	X, Y int
	Node string
}

// Pattern is a rasterized occupancy map of a grid in PatternUnit tiles.
// Each placed node occupies the tile under its cell center. Collision-aware
// placement consumes it to keep new junctions off node locations.
type Pattern struct {
	Width, Height int // extent in tiles
	tiles         map[[2]int]string
}

// BuildPattern rasterizes the grid, relative to a zero origin.
func (g *Grid) BuildPattern() *Pattern {
	p := &Pattern{
		Width:  int(math.Ceil(g.ColEdge(g.Cols()) / PatternUnit)),
		Height: int(math.Ceil(g.RowEdge(g.Rows()) / PatternUnit)),
		tiles:  make(map[[2]int]string),
	}
	for r, row := range g.cells {
		for c, id := range row {
			if id == "" {
				continue
			}
			at, _ := g.GridLocation(r, c, geom.Point{})
			x, y := int(at.X/PatternUnit), int(at.Y/PatternUnit)
			p.tiles[[2]int{x, y}] = id
		}
	}
	return p
}

// At returns the node occupying tile (x, y).
func (p *Pattern) At(x, y int) (string, bool) {
	id, ok := p.tiles[[2]int{x, y}]
	return id, ok
}

// Occupied returns the number of occupied tiles.
func (p *Pattern) Occupied() int { return len(p.tiles) }

// Tiles returns the occupied tiles sorted by row, then column.
func (p *Pattern) Tiles() []Tile {
	out := make([]Tile, 0, len(p.tiles))
	for k, id := range p.tiles {
		out = append(out, Tile{X: k[0], Y: k[1], Node: id})
	}
	slices.SortFunc(out, func(a, b Tile) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	return out
}

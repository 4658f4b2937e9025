package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkroute/pkg/grid"
	"github.com/matzehuels/linkroute/pkg/layout"
)

// gridCommand creates the grid command.
func (c *CLI) gridCommand() *cobra.Command {
	var (
		compress bool
		pattern  bool
	)

	cmd := &cobra.Command{
		Use:   "grid <scenario>",
		Short: "Show the placement grid of a scenario",
		Long: `Build the grid a scenario describes and print every node's cell and pixel
location, the pitches in effect and the occupancy pattern.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := layout.ReadScenarioFile(args[0])
			if err != nil {
				return err
			}
			g, err := s.BuildGrid()
			if err != nil {
				return err
			}
			if compress {
				rows, cols := g.Compress()
				c.Logger.Debug("compressed grid", "rows", rows, "cols", cols)
				if rows+cols > 0 {
					printInfo("Dropped %d empty rows and %d empty columns", rows, cols)
				}
			}
			printGrid(g, pattern)
			return nil
		},
	}

	cmd.Flags().BoolVar(&compress, "compress", false, "drop empty rows and columns first")
	cmd.Flags().BoolVar(&pattern, "pattern", false, "draw the occupancy pattern")

	return cmd
}

func printGrid(g *grid.Grid, drawPattern bool) {
	printKeyValue("Size", fmt.Sprintf("%d × %d cells", g.Rows(), g.Cols()))
	printKeyValue("Rows", pitchSummary(g.RowPitches()))
	printKeyValue("Columns", pitchSummary(g.ColPitches()))
	printKeyValue("Origin", formatPoint(g.EffectiveOrigin()))
	if len(g.TopoOrder) > 0 {
		printKeyValue("Topo order", strings.Join(g.TopoOrder, " "+iconArrow+" "))
	}
	printNewline()

	var rows [][]string
	for _, id := range g.Nodes() {
		r, col, _ := g.Locate(id)
		at, _ := g.Location(id)
		rows = append(rows, []string{id, strconv.Itoa(r), strconv.Itoa(col), formatPoint(at)})
	}
	fmt.Println(newTable([]string{"Node", "Row", "Col", "Location"}, rows).Render())

	p := g.BuildPattern()
	printNewline()
	printKeyValue("Pattern", fmt.Sprintf("%d × %d tiles of %gpx, %d occupied", p.Width, p.Height, float64(grid.PatternUnit), p.Occupied()))
	if drawPattern {
		fmt.Println(patternString(p))
	}
}

// pitchSummary shows a uniform pitch once and overridden pitches in full.
func pitchSummary(pitches []float64) string {
	if len(pitches) == 0 {
		return "none"
	}
	uniform := true
	for _, p := range pitches[1:] {
		if p != pitches[0] {
			uniform = false
			break
		}
	}
	if uniform {
		return fmt.Sprintf("%d × %spx", len(pitches), formatFloat(pitches[0]))
	}
	parts := make([]string, len(pitches))
	for i, p := range pitches {
		parts[i] = formatFloat(p)
	}
	return strings.Join(parts, " ") + " px"
}

// patternString draws occupied tiles as '#' and free tiles as '.'.
func patternString(p *grid.Pattern) string {
	var b strings.Builder
	for y := range p.Height {
		for x := range p.Width {
			if _, ok := p.At(x, y); ok {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		if y < p.Height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

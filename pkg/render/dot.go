package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/linkroute/pkg/geom"
	"github.com/matzehuels/linkroute/pkg/linktree"
)

// DefaultScale is the number of layout pixels per DOT inch.
const DefaultScale = 72.0

// Options configures DOT generation.
type Options struct {
	// Scale is layout pixels per inch. Zero means DefaultScale.
	Scale float64
	// SegmentLabels labels every segment edge with its id.
	SegmentLabels bool
}

// drawStyles are the segment and drop styles Graphviz understands. Unknown
// styles are drawn solid.
var drawStyles = map[string]bool{
	"solid":  true,
	"dashed": true,
	"dotted": true,
	"bold":   true,
}

// ToDOT converts routed trees to Graphviz DOT.
//
// Every distinct junction point becomes a pinned point node at its layout
// position (y flipped, since DOT's y axis points up), every segment an edge
// between its end points, and every drop a box for its source or link
// connected to the junction it hangs from. Direct trees draw as one plain
// edge between source and target boxes. The output is meant for the neato
// engine, which honours pinned positions.
func ToDOT(trees []*linktree.Tree, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	var buf bytes.Buffer
	buf.WriteString("digraph linkroute {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=point, width=0.06];\n")
	buf.WriteString("  edge [arrowhead=none];\n")

	for i, t := range trees {
		buf.WriteString("\n")
		writeTree(&buf, i, t, scale, opts.SegmentLabels)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeTree(buf *bytes.Buffer, index int, t *linktree.Tree, scale float64, labels bool) {
	prefix := fmt.Sprintf("t%d", index)
	fmt.Fprintf(buf, "  // %s\n", t.Source)
	source := prefix + ":" + t.Source
	fmt.Fprintf(buf, "  %q [shape=box, label=%q];\n", source, t.Source)

	if t.IsDirect() {
		for _, d := range t.Drops() {
			if d.Kind != linktree.EndDrop {
				continue
			}
			target := prefix + ":" + d.Target
			fmt.Fprintf(buf, "  %q [shape=box, style=rounded, label=%q];\n", target, d.Target)
			fmt.Fprintf(buf, "  %q -> %q [arrowhead=normal%s];\n", source, target, styleAttr(d.Style))
		}
		return
	}

	seen := make(map[string]bool)
	junction := func(p geom.Point) string {
		name := fmt.Sprintf("%s_%s_%s", prefix, coord(p.X), coord(p.Y))
		if !seen[name] {
			seen[name] = true
			fmt.Fprintf(buf, "  %q [pos=\"%s,%s!\"];\n", name, coord(p.X/scale), coord(-p.Y/scale))
		}
		return name
	}

	for _, s := range t.Segments() {
		from := junction(s.Start())
		end, ok := s.End()
		if !ok {
			continue
		}
		to := junction(end)
		attrs := styleAttr(s.Style)
		if labels {
			attrs += fmt.Sprintf(", label=\"%d\"", s.ID)
		}
		fmt.Fprintf(buf, "  %q -> %q [penwidth=2%s];\n", from, to, attrs)
	}

	for _, d := range t.Drops() {
		s, ok := t.Segment(d.Conn.Segment)
		if !ok {
			continue
		}
		at := s.Start()
		if d.Conn.Sense == linktree.ConnectToEnd {
			at = s.EndPoint()
		}
		j := junction(at)
		if d.Kind == linktree.StartDrop {
			fmt.Fprintf(buf, "  %q -> %q [style=dotted];\n", source, j)
			continue
		}
		target := prefix + ":" + d.Target
		fmt.Fprintf(buf, "  %q [shape=box, style=rounded, label=%q];\n", target, d.Target)
		fmt.Fprintf(buf, "  %q -> %q [arrowhead=normal%s];\n", j, target, styleAttr(d.Style))
	}
}

func styleAttr(style string) string {
	if !drawStyles[style] {
		return ""
	}
	return fmt.Sprintf(", style=%s", style)
}

// coord formats a coordinate compactly and without exponent.
func coord(f float64) string {
	if f == 0 {
		f = 0 // fold -0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT source to SVG with the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag (pt units, fixed size) with a
// scalable one.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Format names accepted by Render.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidateFormat checks that format is one Render produces.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatDOT, FormatSVG, FormatPNG, FormatPDF:
		return nil
	}
	return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, pdf)", format)
}

// Render produces trees in the given format. PNG and PDF go through
// rsvg-convert.
func Render(ctx context.Context, trees []*linktree.Tree, format string, opts Options) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	dot := ToDOT(trees, opts)
	format = strings.ToLower(format)
	if format == FormatDOT {
		return []byte(dot), nil
	}
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatPNG:
		return ToPNG(ctx, svg, 2.0)
	case FormatPDF:
		return ToPDF(ctx, svg)
	}
	return svg, nil
}

// Package render draws routed link trees for debugging.
//
// [ToDOT] writes Graphviz DOT in which every junction of a bus is pinned at
// its layout position, so the picture shows the routed geometry rather than a
// graph layout of it:
//
//	dot := render.ToDOT(trees, render.Options{SegmentLabels: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [Render] picks the output by format name (dot, svg, png, pdf). SVG is
// produced in-process with [github.com/goccy/go-graphviz]; PNG and PDF
// conversion requires librsvg (rsvg-convert).
package render

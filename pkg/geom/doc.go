// Package geom provides the 2D vector utilities and line-segment primitives
// used by the link-tree router.
//
// Points and vectors are gonum [r2.Vec] values. Every routed coordinate is
// snapped to [GridPitch] so that splitting a segment twice at the same point
// is idempotent.
//
// # Segments
//
// A [Segment] is either a real straight piece with a derived unit run, normal
// and length, or a degenerate single point. Degenerate segments are a normal
// modelled state (a junction whose direction is not known yet); every
// operation handles them through an explicit branch rather than an error.
//
// # Tolerances
//
// Geometric comparisons take an explicit tolerance. A tolerance of 0 is a
// real tolerance: comparisons are floored at [Epsilon], never switched off.
//
// [r2.Vec]: https://pkg.go.dev/gonum.org/v1/gonum/spatial/r2#Vec
package geom

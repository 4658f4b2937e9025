// Package route grows orthogonal buses for bundles of links placed on a grid.
//
// Every link leaving one source is routed as part of a single [linktree.Tree].
// The router runs a shared trunk (the riser) from the source's launch point
// across the rows that hold targets and fans out one branch (a runner) per
// target at each of those rows. [Axis] selects whether risers cross rows
// (Vertical) or columns (Horizontal).
//
// Buses of different sources that share a row or column are kept apart by a
// [SlotTracker], which hands each source a lateral slot in first-seen order
// for the lifetime of one routing pass:
//
//	r := route.NewRouter(g, pads, logger)
//	trees, err := r.RouteAll(ctx, links)
//
// Node locations come from a [Placement] (the grid itself by default) and pad
// offsets from a [PadProvider].
package route

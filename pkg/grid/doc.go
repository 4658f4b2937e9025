// Package grid places node ids on a row/column grid and turns cells into
// pixel locations.
//
// Grids are built once from a flat id list ([NewPacked], [NewVariable],
// [NewSingleRow]) or an explicit 2D layout ([FromCells]) and then edited in
// place: rows and columns are inserted and removed, and single rows or
// columns get their own pitch. Per-axis pitch tables are only allocated on the
// first override.
//
// The router reads row and column edges ([Grid.RowEdge], [Grid.ColEdge]) to
// place the channels its risers and runners travel in.
package grid

// Package layout defines the documents linkroute reads and writes.
//
// # Scenarios
//
// A [Scenario] is the input of a routing pass: the grid (drawn as cells or
// packed from a node list), per-node pad offsets, the links to route and
// router options. Scenarios are read from JSON or TOML:
//
//	s, err := layout.ReadScenarioFile("board.toml")
//	g, err := s.BuildGrid()
//	links, err := s.RouteLinks()
//
// # Trees
//
// A [TreeDoc] is the persisted form of a linktree.Tree: the ordered segment
// list (id, optional parent, start, optional end, optional style) and the
// ordered drop list (kind, target link, connection segment and sense, style).
// [FromTree] and [ToTree] preserve ids and parents exactly, so encoding is
// stable across a decode/rebuild cycle.
//
// # Results
//
// A [Result] bundles the trees of one pass with its id and any warnings. It
// is written as JSON for files and the HTTP API and as BSON for the snapshot
// store.
package layout

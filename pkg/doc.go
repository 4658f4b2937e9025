// Package pkg provides the core libraries for linkroute orthogonal link routing.
//
// # Overview
//
// Linkroute places nodes on a grid and routes every link between them as
// axis-aligned segments. All links leaving one source share a single tree
// (a bus), so common trunks are drawn once. The pkg directory is organized
// into three areas:
//
//  1. Geometry and routing: [geom], [linktree], [grid], [route]
//  2. Documents and orchestration: [layout], [pipeline], [render]
//  3. Infrastructure: [cache], [store], [server], [config], [watch],
//     [observability], [errors], [buildinfo]
//
// # Architecture
//
// The typical data flow through linkroute:
//
//	Scenario (.toml / .json)
//	         ↓
//	    [layout] package (decode, build grid, pads, links)
//	         ↓
//	    [route] package (one Router per pass, one tree per source)
//	         ↓
//	    [linktree] package (splits, relocations, drops)
//	         ↓
//	    [layout.Result] → JSON file, snapshot store, DOT/SVG drawing
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/linkroute/pkg/layout"
//	    "github.com/matzehuels/linkroute/pkg/pipeline"
//	)
//
//	s, _ := layout.ReadScenarioFile("board.toml")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	out, _ := runner.Execute(context.Background(), s, pipeline.Options{})
//	for _, t := range out.Trees {
//	    fmt.Println(t.Source, t.SegmentCount())
//	}
//
// # Main Packages
//
//   - [geom]: points, axis-aligned segments, intersection and snapping
//   - [linktree]: the per-source tree of segments and drops with all edits
//   - [grid]: row/column placement with pitch overrides and patterns
//   - [route]: riser/runner routing with channel slot tracking
//   - [layout]: scenario, tree and result documents (JSON, TOML, BSON)
//   - [pipeline]: cached routing passes shared by the CLI and the server
//   - [render]: Graphviz DOT, SVG, PNG and PDF drawings of routed trees
//   - [cache]: file, Redis and null caches with content-hash keys
//   - [store]: named snapshots of results on disk or in MongoDB
//   - [server]: the chi-based HTTP API
//   - [config]: koanf configuration from file, environment and flags
//   - [watch]: fsnotify re-routing of changed scenarios
//   - [observability]: hook points for metrics and tracing
package pkg

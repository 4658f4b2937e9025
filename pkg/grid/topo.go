package grid

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
)

// Edge is a directed link between two placed nodes.
type Edge struct {
	From, To string
}

// ComputeTopoOrder orders the placed nodes so every edge runs forward and
// stores the result in TopoOrder. Ties are broken by row-major placement, so
// the order is deterministic. Self edges are ignored; edges naming a node
// that is not placed are STRUCTURAL errors.
func (g *Grid) ComputeTopoOrder(edges []Edge) ([]string, error) {
	nodes := g.Nodes()
	index := make(map[string]int64, len(nodes))
	dg := simple.NewDirectedGraph()
	for i, id := range nodes {
		index[id] = int64(i)
		dg.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		from, ok := index[e.From]
		if !ok {
			return nil, lrerrors.Wrap(lrerrors.ErrCodeStructural, ErrUnknownNode, "edge source %q", e.From)
		}
		to, ok := index[e.To]
		if !ok {
			return nil, lrerrors.Wrap(lrerrors.ErrCodeStructural, ErrUnknownNode, "edge target %q", e.To)
		}
		if from == to {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
	}

	sorted, err := topo.SortStabilized(dg, byID)
	if err != nil {
		return nil, lrerrors.Wrap(lrerrors.ErrCodeStructural, ErrCycle, "%v", err)
	}
	order := make([]string, len(sorted))
	for i, n := range sorted {
		order[i] = nodes[n.ID()]
	}
	g.TopoOrder = order
	return order, nil
}

func byID(ns []graph.Node) {
	slices.SortFunc(ns, func(a, b graph.Node) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
}

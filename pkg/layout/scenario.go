package layout

import (
	"cmp"
	"slices"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/geom"
	"github.com/matzehuels/linkroute/pkg/grid"
	"github.com/matzehuels/linkroute/pkg/route"
)

// Grid arrangements for scenarios that list nodes instead of cells.
const (
	ArrangeCells     = "cells"
	ArrangePacked    = "packed"
	ArrangeVariable  = "variable"
	ArrangeSingleRow = "single_row"
)

// Scenario describes one routing problem: where nodes sit, which pads they
// have and which links to route.
type Scenario struct {
	Name    string     `json:"name,omitempty" toml:"name,omitempty"`
	Grid    GridDoc    `json:"grid" toml:"grid"`
	Nodes   []NodeDoc  `json:"nodes,omitempty" toml:"nodes,omitempty"`
	Links   []LinkDoc  `json:"links" toml:"links"`
	Options OptionsDoc `json:"options,omitzero" toml:"options,omitempty"`
}

// GridDoc describes the placement grid.
//
// With Cells set (or Arrange "cells") the grid is taken as drawn. Otherwise
// the ids of Nodes are laid out row-major according to Arrange.
type GridDoc struct {
	Arrange    string     `json:"arrange,omitempty" toml:"arrange,omitempty"`
	Cells      [][]string `json:"cells,omitempty" toml:"cells,omitempty"`
	RowPitch   float64    `json:"row_pitch,omitempty" toml:"row_pitch,omitempty"`
	ColPitch   float64    `json:"col_pitch,omitempty" toml:"col_pitch,omitempty"`
	Width      float64    `json:"width,omitempty" toml:"width,omitempty"`
	Height     float64    `json:"height,omitempty" toml:"height,omitempty"`
	Origin     *PointDoc  `json:"origin,omitempty" toml:"origin,omitempty"`
	Reference  *RefDoc    `json:"reference,omitempty" toml:"reference,omitempty"`
	RowPitches []PitchDoc `json:"row_pitches,omitempty" toml:"row_pitches,omitempty"`
	ColPitches []PitchDoc `json:"col_pitches,omitempty" toml:"col_pitches,omitempty"`
	Edges      []EdgeDoc  `json:"edges,omitempty" toml:"edges,omitempty"`
}

// RefDoc pins one node to a pixel location.
type RefDoc struct {
	Node string   `json:"node" toml:"node"`
	At   PointDoc `json:"at" toml:"at"`
}

// PitchDoc overrides the pitch of one row or column.
type PitchDoc struct {
	Index int     `json:"index" toml:"index"`
	Pitch float64 `json:"pitch" toml:"pitch"`
}

// EdgeDoc is a dependency used to compute the grid's topological order.
type EdgeDoc struct {
	From string `json:"from" toml:"from"`
	To   string `json:"to" toml:"to"`
}

// NodeDoc lists the pad offsets of one node.
type NodeDoc struct {
	ID              string     `json:"id" toml:"id"`
	Launch          []PointDoc `json:"launch,omitempty" toml:"launch,omitempty"`
	Landing         []PointDoc `json:"landing,omitempty" toml:"landing,omitempty"`
	NegativeLanding []PointDoc `json:"negative_landing,omitempty" toml:"negative_landing,omitempty"`
}

// LinkDoc is one link to route.
type LinkDoc struct {
	ID         string `json:"id" toml:"id"`
	Source     string `json:"source" toml:"source"`
	Target     string `json:"target" toml:"target"`
	LaunchPad  int    `json:"launch_pad,omitempty" toml:"launch_pad,omitempty"`
	LandingPad int    `json:"landing_pad,omitempty" toml:"landing_pad,omitempty"`
	Sign       string `json:"sign,omitempty" toml:"sign,omitempty"`
}

// OptionsDoc tunes the router. Zero values mean the router defaults, except
// for MatchTolerance where only an absent value does: 0 asks for exact
// split-point matches.
type OptionsDoc struct {
	Axis           string   `json:"axis,omitempty" toml:"axis,omitempty"`
	SlotUnit       float64  `json:"slot_unit,omitempty" toml:"slot_unit,omitempty"`
	MatchTolerance *float64 `json:"match_tolerance,omitempty" toml:"match_tolerance,omitempty"`
}

// Validate checks ids and cross references without building anything.
func (s *Scenario) Validate() error {
	for _, n := range s.Nodes {
		if err := lrerrors.ValidateID("node", n.ID); err != nil {
			return err
		}
	}
	seen := make(map[string]bool, len(s.Links))
	for _, l := range s.Links {
		if err := lrerrors.ValidateID("link", l.ID); err != nil {
			return err
		}
		if seen[l.ID] {
			return lrerrors.New(lrerrors.ErrCodeInvalidScenario, "link %q is listed twice", l.ID)
		}
		seen[l.ID] = true
		if l.Source == "" || l.Target == "" {
			return lrerrors.New(lrerrors.ErrCodeInvalidScenario, "link %q needs a source and a target", l.ID)
		}
		if _, err := route.ParseSign(l.Sign); err != nil {
			return err
		}
	}
	if len(s.Links) == 0 {
		return lrerrors.New(lrerrors.ErrCodeInvalidScenario, "scenario has no links")
	}
	if _, err := route.ParseAxis(s.Options.Axis); err != nil {
		return err
	}
	switch s.Grid.arrangement() {
	case ArrangeCells, ArrangePacked, ArrangeVariable, ArrangeSingleRow:
	default:
		return lrerrors.New(lrerrors.ErrCodeInvalidScenario, "unknown grid arrangement %q", s.Grid.Arrange)
	}
	return nil
}

func (g GridDoc) arrangement() string {
	if g.Arrange == "" {
		if g.Cells != nil {
			return ArrangeCells
		}
		return ArrangePacked
	}
	return g.Arrange
}

// DefaultPitch is used for a missing row or column pitch.
const DefaultPitch = 100

// BuildGrid builds the placement grid, applies pitch overrides, the origin and
// the reference pin, and computes the topological order when edges are given.
func (s *Scenario) BuildGrid() (*grid.Grid, error) {
	gd := s.Grid
	rowPitch := cmp.Or(gd.RowPitch, DefaultPitch)
	colPitch := cmp.Or(gd.ColPitch, DefaultPitch)

	var (
		g   *grid.Grid
		err error
	)
	switch gd.arrangement() {
	case ArrangeCells:
		g, err = grid.FromCells(gd.Cells, rowPitch, colPitch)
	case ArrangePacked:
		ids := s.nodeIDs()
		rows, cols := grid.PackedSize(len(ids))
		width := cmp.Or(gd.Width, float64(cols)*colPitch)
		height := cmp.Or(gd.Height, float64(rows)*rowPitch)
		g, err = grid.NewPacked(ids, width, height)
	case ArrangeVariable:
		g, err = grid.NewVariable(s.nodeIDs(), rowPitch, colPitch)
	case ArrangeSingleRow:
		g, err = grid.NewSingleRow(s.nodeIDs(), rowPitch, colPitch)
	default:
		err = lrerrors.New(lrerrors.ErrCodeInvalidScenario, "unknown grid arrangement %q", gd.Arrange)
	}
	if err != nil {
		return nil, err
	}

	for _, p := range gd.RowPitches {
		if err := g.SetRowPitch(p.Index, p.Pitch); err != nil {
			return nil, err
		}
	}
	for _, p := range gd.ColPitches {
		if err := g.SetColPitch(p.Index, p.Pitch); err != nil {
			return nil, err
		}
	}
	if gd.Origin != nil {
		g.Origin = gd.Origin.Point()
	}
	if gd.Reference != nil {
		if err := g.SetReference(gd.Reference.Node, gd.Reference.At.Point()); err != nil {
			return nil, err
		}
	}
	if len(gd.Edges) > 0 {
		edges := make([]grid.Edge, len(gd.Edges))
		for i, e := range gd.Edges {
			edges[i] = grid.Edge{From: e.From, To: e.To}
		}
		if _, err := g.ComputeTopoOrder(edges); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// nodeIDs returns the ids to lay out: the scenario's nodes, then any link
// endpoint not listed there, in first-seen order.
func (s *Scenario) nodeIDs() []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, n := range s.Nodes {
		add(n.ID)
	}
	for _, l := range s.Links {
		add(l.Source)
		add(l.Target)
	}
	return ids
}

// Pads returns the pad tables of the scenario's nodes.
func (s *Scenario) Pads() route.StaticPads {
	pads := make(route.StaticPads, len(s.Nodes))
	for _, n := range s.Nodes {
		pads[n.ID] = route.NodePads{
			Launch:          vecs(n.Launch),
			Landing:         vecs(n.Landing),
			NegativeLanding: vecs(n.NegativeLanding),
		}
	}
	return pads
}

func vecs(ps []PointDoc) []geom.Vec {
	if ps == nil {
		return nil
	}
	out := make([]geom.Vec, len(ps))
	for i, p := range ps {
		out[i] = p.Point()
	}
	return out
}

// RouteLinks converts the scenario's links, sorted by id.
func (s *Scenario) RouteLinks() ([]route.Link, error) {
	out := make([]route.Link, 0, len(s.Links))
	for _, l := range s.Links {
		sign, err := route.ParseSign(l.Sign)
		if err != nil {
			return nil, err
		}
		out = append(out, route.Link{
			ID:         l.ID,
			Source:     l.Source,
			Target:     l.Target,
			LaunchPad:  l.LaunchPad,
			LandingPad: l.LandingPad,
			Sign:       sign,
		})
	}
	slices.SortFunc(out, func(a, b route.Link) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Axis returns the routing axis named by the options.
func (s *Scenario) Axis() (route.Axis, error) {
	return route.ParseAxis(s.Options.Axis)
}

package layout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/geom"
	"github.com/matzehuels/linkroute/pkg/route"
)

const scenarioJSON = `{
  "name": "two rows",
  "grid": {
    "cells": [["S", "", ""], ["", "A", ""], ["", "", ""], ["", "", "B"]],
    "row_pitch": 300,
    "col_pitch": 300,
    "origin": {"x": -150, "y": -150}
  },
  "nodes": [
    {"id": "S", "launch": [{"x": 0, "y": 0}]},
    {"id": "B", "landing": [{"x": -20, "y": 0}], "negative_landing": [{"x": 20, "y": 0}]}
  ],
  "links": [
    {"id": "b", "source": "S", "target": "B", "sign": "negative"},
    {"id": "a", "source": "S", "target": "A"}
  ],
  "options": {"axis": "vertical"}
}`

const scenarioTOML = `
name = "two rows"

[grid]
cells = [["S", "", ""], ["", "A", ""], ["", "", ""], ["", "", "B"]]
row_pitch = 300.0
col_pitch = 300.0
origin = { x = -150.0, y = -150.0 }

[[nodes]]
id = "S"
launch = [{ x = 0.0, y = 0.0 }]

[[nodes]]
id = "B"
landing = [{ x = -20.0, y = 0.0 }]
negative_landing = [{ x = 20.0, y = 0.0 }]

[[links]]
id = "b"
source = "S"
target = "B"
sign = "negative"

[[links]]
id = "a"
source = "S"
target = "A"

[options]
axis = "vertical"
`

func TestScenarioFormatsAgree(t *testing.T) {
	fromJSON, err := ReadScenario(strings.NewReader(scenarioJSON), FormatJSON)
	if err != nil {
		t.Fatalf("ReadScenario(json) error: %v", err)
	}
	fromTOML, err := ReadScenario(strings.NewReader(scenarioTOML), FormatTOML)
	if err != nil {
		t.Fatalf("ReadScenario(toml) error: %v", err)
	}
	if diff := cmp.Diff(fromJSON, fromTOML); diff != "" {
		t.Errorf("JSON and TOML scenarios differ (-json +toml):\n%s", diff)
	}
}

func TestScenarioBuild(t *testing.T) {
	s, err := ReadScenario(strings.NewReader(scenarioJSON), FormatJSON)
	if err != nil {
		t.Fatalf("ReadScenario() error: %v", err)
	}
	g, err := s.BuildGrid()
	if err != nil {
		t.Fatalf("BuildGrid() error: %v", err)
	}
	for id, want := range map[string]geom.Point{"S": geom.Pt(0, 0), "A": geom.Pt(300, 300), "B": geom.Pt(600, 900)} {
		if got, ok := g.Location(id); !ok || got != want {
			t.Errorf("Location(%s) = %v, %v; want %v", id, got, ok, want)
		}
	}

	links, err := s.RouteLinks()
	if err != nil {
		t.Fatalf("RouteLinks() error: %v", err)
	}
	want := []route.Link{
		{ID: "a", Source: "S", Target: "A"},
		{ID: "b", Source: "S", Target: "B", Sign: route.Negative},
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Errorf("RouteLinks mismatch (-want +got):\n%s", diff)
	}

	pads := s.Pads()
	if v, err := pads.LandingPad("B", 0, route.Negative); err != nil || v != (geom.Vec{X: 20}) {
		t.Errorf("negative landing pad = %v, %v; want {20 0}", v, err)
	}
	if axis, err := s.Axis(); err != nil || axis != route.Vertical {
		t.Errorf("Axis() = %v, %v; want vertical", axis, err)
	}
}

func TestScenarioArrangements(t *testing.T) {
	links := []LinkDoc{{ID: "l1", Source: "a", Target: "b"}, {ID: "l2", Source: "a", Target: "c"}}
	tests := []struct {
		arrange    string
		rows, cols int
	}{
		{ArrangePacked, 2, 2},
		{ArrangeVariable, 2, 2},
		{ArrangeSingleRow, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.arrange, func(t *testing.T) {
			s := &Scenario{Grid: GridDoc{Arrange: tt.arrange}, Links: links}
			if err := s.Validate(); err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			g, err := s.BuildGrid()
			if err != nil {
				t.Fatalf("BuildGrid() error: %v", err)
			}
			if g.Rows() != tt.rows || g.Cols() != tt.cols {
				t.Errorf("grid is %dx%d, want %dx%d", g.Rows(), g.Cols(), tt.rows, tt.cols)
			}
			if r, c, ok := g.Locate("a"); !ok || r != 0 || c != 0 {
				t.Errorf("Locate(a) = %d,%d,%v; want 0,0", r, c, ok)
			}
		})
	}
}

func TestScenarioGridExtras(t *testing.T) {
	s := &Scenario{
		Grid: GridDoc{
			Cells:      [][]string{{"a", "b"}, {"c", ""}},
			RowPitches: []PitchDoc{{Index: 0, Pitch: 200}},
			Reference:  &RefDoc{Node: "a", At: PointDoc{X: 1000, Y: 1000}},
			Edges:      []EdgeDoc{{From: "c", To: "a"}, {From: "a", To: "b"}},
		},
		Links: []LinkDoc{{ID: "l", Source: "a", Target: "b"}},
	}
	g, err := s.BuildGrid()
	if err != nil {
		t.Fatalf("BuildGrid() error: %v", err)
	}
	if got := g.RowPitch(0); got != 200 {
		t.Errorf("RowPitch(0) = %g, want 200", got)
	}
	if got, _ := g.Location("a"); got != geom.Pt(1000, 1000) {
		t.Errorf("Location(a) = %v, want pinned (1000,1000)", got)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, g.TopoOrder); diff != "" {
		t.Errorf("TopoOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestReadScenarioErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
		code   lrerrors.Code
	}{
		{"bad json", FormatJSON, `{"links": [`, lrerrors.ErrCodeInvalidFormat},
		{"unknown json field", FormatJSON, `{"links": [{"id": "l", "source": "a", "target": "b"}], "extra": 1}`, lrerrors.ErrCodeInvalidFormat},
		{"unknown toml key", FormatTOML, "colour = \"red\"\n[[links]]\nid = \"l\"\nsource = \"a\"\ntarget = \"b\"\n", lrerrors.ErrCodeInvalidFormat},
		{"no links", FormatJSON, `{"grid": {}}`, lrerrors.ErrCodeInvalidScenario},
		{"duplicate link", FormatJSON, `{"links": [{"id": "l", "source": "a", "target": "b"}, {"id": "l", "source": "a", "target": "c"}]}`, lrerrors.ErrCodeInvalidScenario},
		{"missing target", FormatJSON, `{"links": [{"id": "l", "source": "a"}]}`, lrerrors.ErrCodeInvalidScenario},
		{"bad id", FormatJSON, `{"links": [{"id": " l", "source": "a", "target": "b"}]}`, lrerrors.ErrCodeInvalidInput},
		{"bad sign", FormatJSON, `{"links": [{"id": "l", "source": "a", "target": "b", "sign": "up"}]}`, lrerrors.ErrCodeInvalidInput},
		{"bad axis", FormatJSON, `{"links": [{"id": "l", "source": "a", "target": "b"}], "options": {"axis": "z"}}`, lrerrors.ErrCodeInvalidInput},
		{"bad arrangement", FormatJSON, `{"grid": {"arrange": "spiral"}, "links": [{"id": "l", "source": "a", "target": "b"}]}`, lrerrors.ErrCodeInvalidScenario},
		{"unknown format", "yaml", `links: []`, lrerrors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadScenario(strings.NewReader(tt.input), tt.format)
			if !lrerrors.Is(err, tt.code) {
				t.Errorf("ReadScenario() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestReadScenarioFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.toml")
	if err := os.WriteFile(path, []byte(scenarioTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := ReadScenarioFile(path)
	if err != nil {
		t.Fatalf("ReadScenarioFile() error: %v", err)
	}
	if s.Name != "two rows" {
		t.Errorf("Name = %q, want two rows", s.Name)
	}

	if _, err := ReadScenarioFile(filepath.Join(dir, "board.yaml")); !lrerrors.Is(err, lrerrors.ErrCodeInvalidFormat) {
		t.Errorf("ReadScenarioFile(.yaml) error = %v, want INVALID_FORMAT", err)
	}
}

func TestResultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	r := &Result{PassID: "p", Axis: "vertical", Trees: []TreeDoc{FromTree(branchingTree(t))}}
	if err := WriteResultFile(r, path); err != nil {
		t.Fatalf("WriteResultFile() error: %v", err)
	}
	got, err := ReadResultFile(path)
	if err != nil {
		t.Fatalf("ReadResultFile() error: %v", err)
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

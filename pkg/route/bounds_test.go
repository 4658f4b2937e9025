package route

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/linkroute/pkg/geom"
)

func TestNewBounds(t *testing.T) {
	g := mustGrid(t, [][]string{
		{"A", "", "", ""},
		{"", "S", "B", ""},
		{"C", "", "", "D"},
	}, 100, geom.Point{})
	links := []Link{
		{ID: "a1", Source: "S", Target: "A", LandingPad: 0},
		{ID: "a2", Source: "S", Target: "A", LandingPad: 2},
		{ID: "b", Source: "S", Target: "B"},
		{ID: "c", Source: "S", Target: "C"},
		{ID: "d1", Source: "S", Target: "D", LandingPad: 1},
		{ID: "d0", Source: "S", Target: "D", LandingPad: 0},
	}
	b, err := NewBounds(g, Vertical, "S", links, nil)
	if err != nil {
		t.Fatalf("NewBounds() error: %v", err)
	}
	if b.SourceMajor != 1 || b.SourceMinor != 1 {
		t.Errorf("source at (%d,%d), want (1,1)", b.SourceMajor, b.SourceMinor)
	}
	if diff := cmp.Diff([]int{1, 0}, b.LowerMajors()); diff != "" {
		t.Errorf("LowerMajors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, b.HigherMajors()); diff != "" {
		t.Errorf("HigherMajors mismatch (-want +got):\n%s", diff)
	}

	// Below the source minor pads run descending, above it ascending.
	band0, _ := b.Band(0)
	if diff := cmp.Diff([]Bucket{{Minor: 0, Links: []string{"a2", "a1"}}}, band0.Lower); diff != "" {
		t.Errorf("band 0 Lower mismatch (-want +got):\n%s", diff)
	}
	band2, _ := b.Band(2)
	if band2.MinMinor != 0 || band2.MaxMinor != 3 {
		t.Errorf("band 2 spans %d..%d, want 0..3", band2.MinMinor, band2.MaxMinor)
	}
	if diff := cmp.Diff([]string{"c", "d0", "d1"}, band2.Links()); diff != "" {
		t.Errorf("band 2 Links mismatch (-want +got):\n%s", diff)
	}

	if a, _ := b.Anchor(b.LowerMajors()); a != "a2" {
		t.Errorf("Lower anchor = %q, want a2", a)
	}
	// c is one column from the source, d two.
	if a, _ := b.Anchor(b.HigherMajors()); a != "c" {
		t.Errorf("Higher anchor = %q, want c", a)
	}
	if _, ok := b.Anchor(nil); ok {
		t.Error("Anchor(nil) ok = true")
	}
}

func TestNewBoundsFilter(t *testing.T) {
	g := mustGrid(t, [][]string{{"S", "A", "B"}}, 100, geom.Point{})
	links := []Link{link("a", "S", "A"), link("b", "S", "B")}
	b, err := NewBounds(g, Horizontal, "S", links, func(l Link) bool { return l.ID == "b" })
	if err != nil {
		t.Fatalf("NewBounds() error: %v", err)
	}
	if _, ok := b.Link("a"); ok {
		t.Error("filtered link a is present")
	}
	if diff := cmp.Diff([]int{2}, b.HigherMajors()); diff != "" {
		t.Errorf("HigherMajors mismatch (-want +got):\n%s", diff)
	}

	none, err := NewBounds(g, Horizontal, "S", links, func(Link) bool { return false })
	if err != nil || !none.Empty() {
		t.Errorf("NewBounds(drop all) = %v, %v; want empty", none, err)
	}
}

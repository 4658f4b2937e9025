package linktree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/linkroute/pkg/geom"
)

func TestInsertNodeOnDirect(t *testing.T) {
	tree := NewDirectWithStyle("src", "l1", "bold")
	res, err := tree.InsertNode(InsertRequest{
		At:      DirectAddr(),
		Point:   ptAt(0, 0),
		NewNode: "n",
		NewLink: "src-n",
		Remap:   map[string]string{"l1": "n-l1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustValid(t, res.Upstream)
	mustValid(t, res.Downstream)

	if diff := cmp.Diff([]string{"src-n"}, res.Upstream.Targets()); diff != "" {
		t.Errorf("upstream targets mismatch (-want +got):\n%s", diff)
	}
	if res.Upstream.SegmentCount() != 1 {
		t.Errorf("upstream has %d segments, want the degenerate root", res.Upstream.SegmentCount())
	}
	if res.Downstream.Source != "n" || res.Downstream.Shape() != Direct {
		t.Errorf("downstream = %v, want direct from n", res.Downstream)
	}
	if d, _ := res.Downstream.EndDrop("n-l1"); d.Style != "bold" {
		t.Errorf("downstream style = %q, want bold", d.Style)
	}
}

func TestInsertNodeOnStartDrop(t *testing.T) {
	tree := sampleTree(t)
	res, err := tree.InsertNode(InsertRequest{
		At:      StartDropAddr(),
		NewNode: "n",
		NewLink: "src-n",
		Remap:   map[string]string{"a": "a2", "b": "b2", "c": "c2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustValid(t, res.Upstream)
	mustValid(t, res.Downstream)

	if res.Downstream.Source != "n" || res.Downstream.SegmentCount() != 4 {
		t.Errorf("downstream = %v, want the whole bus from n", res.Downstream)
	}
	if diff := cmp.Diff([]string{"a2", "b2", "c2"}, res.Downstream.Targets()); diff != "" {
		t.Errorf("downstream targets mismatch (-want +got):\n%s", diff)
	}
	if res.Upstream.Shape() != Direct || res.Upstream.Source != "src" {
		t.Errorf("upstream = %v, want direct from src", res.Upstream)
	}
}

func TestInsertNodeOnEndDrop(t *testing.T) {
	tree := sampleTree(t)
	res, err := tree.InsertNode(InsertRequest{
		At:      EndDropAddr("c"),
		NewNode: "n",
		NewLink: "src-n",
		Remap:   map[string]string{"c": "n-c"},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustValid(t, res.Upstream)
	mustValid(t, res.Downstream)

	if diff := cmp.Diff([]string{"a", "b", "src-n"}, res.Upstream.Targets()); diff != "" {
		t.Errorf("upstream targets mismatch (-want +got):\n%s", diff)
	}
	d, ok := res.Downstream.EndDrop("n-c")
	if !ok || d.Style != "dashed" {
		t.Errorf("downstream drop = %+v, want n-c inheriting dashed", d)
	}
	if res.Downstream.SegmentCount() != 0 {
		t.Error("downstream should be a bare direct tree")
	}
}

func TestInsertNodeOnSegment(t *testing.T) {
	tree := sampleTree(t)
	res, err := tree.InsertNode(InsertRequest{
		At:      SegmentAddr(1),
		Point:   ptAt(50, 100),
		NewNode: "n",
		NewLink: "src-n",
		Remap:   map[string]string{"a": "a2", "b": "b2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustValid(t, res.Upstream)
	mustValid(t, res.Downstream)

	if diff := cmp.Diff([]string{"c", "src-n"}, res.Upstream.Targets()); diff != "" {
		t.Errorf("upstream targets mismatch (-want +got):\n%s", diff)
	}
	d, _ := res.Upstream.EndDrop("src-n")
	if p, _ := res.Upstream.AttachPoint(d); p != geom.Pt(50, 100) {
		t.Errorf("new link attached at %v, want (50,100)", p)
	}

	down := res.Downstream
	if diff := cmp.Diff([]string{"a2", "b2"}, down.Targets()); diff != "" {
		t.Errorf("downstream targets mismatch (-want +got):\n%s", diff)
	}
	root, _ := down.Segment(down.Root())
	if !root.IsDegenerate() || root.Start() != geom.Pt(50, 100) {
		t.Errorf("downstream root = %v, want degenerate at (50,100)", root.Segment)
	}
	if down.SegmentCount() != 3 {
		t.Errorf("downstream has %d segments, want 3", down.SegmentCount())
	}
	if tree.SegmentCount() != 4 {
		t.Error("receiver was modified")
	}
}

func TestInsertNodeRemapMismatch(t *testing.T) {
	tests := []struct {
		name string
		tree *Tree
		req  InsertRequest
	}{
		{
			name: "direct with extra key",
			tree: NewDirect("s", "l1"),
			req:  InsertRequest{At: DirectAddr(), Point: ptAt(0, 0), NewNode: "n", NewLink: "x", Remap: map[string]string{"l1": "a", "l2": "b"}},
		},
		{
			name: "start drop missing key",
			tree: sampleTree(t),
			req:  InsertRequest{At: StartDropAddr(), NewNode: "n", NewLink: "x", Remap: map[string]string{"a": "a2", "b": "b2"}},
		},
		{
			name: "end drop wrong key",
			tree: sampleTree(t),
			req:  InsertRequest{At: EndDropAddr("c"), NewNode: "n", NewLink: "x", Remap: map[string]string{"a": "a2"}},
		},
		{
			name: "segment missing key",
			tree: sampleTree(t),
			req:  InsertRequest{At: SegmentAddr(1), Point: ptAt(50, 100), NewNode: "n", NewLink: "x", Remap: map[string]string{"a": "a2"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.tree.InsertNode(tt.req); !errors.Is(err, ErrBadRemap) {
				t.Errorf("InsertNode() error = %v, want ErrBadRemap", err)
			}
		})
	}
}

func TestInsertNodeOnDirectRejectsRoutedTree(t *testing.T) {
	_, err := sampleTree(t).InsertNode(InsertRequest{At: DirectAddr(), NewNode: "n", NewLink: "x"})
	if !errors.Is(err, ErrBadAddress) {
		t.Errorf("error = %v, want ErrBadAddress", err)
	}
}

func TestInsertNodeRequiresJunctionPoint(t *testing.T) {
	tests := []struct {
		name string
		tree *Tree
		at   Address
	}{
		{"direct", NewDirect("s", "l1"), DirectAddr()},
		{"segment", sampleTree(t), SegmentAddr(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.tree.String()
			_, err := tt.tree.InsertNode(InsertRequest{At: tt.at, NewNode: "n", NewLink: "x", Remap: map[string]string{"l1": "a"}})
			if !errors.Is(err, ErrBadAddress) {
				t.Errorf("InsertNode() error = %v, want ErrBadAddress", err)
			}
			if diff := cmp.Diff(before, tt.tree.String()); diff != "" {
				t.Errorf("receiver changed (-before +after):\n%s", diff)
			}
		})
	}
}

func ptAt(x, y float64) *geom.Point {
	p := geom.Pt(x, y)
	return &p
}

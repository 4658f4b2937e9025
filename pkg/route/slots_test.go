package route

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRowSlotFirstSeenOrder(t *testing.T) {
	s := NewSlotTracker()
	sources := []string{"s1", "s2", "s3", "s4", "s5"}
	for i, src := range sources {
		if got := s.RowSlot(7, src); got != i {
			t.Errorf("RowSlot(7, %s) = %d, want %d", src, got, i)
		}
	}
	// Repeated lookups keep their slot, in any order.
	for i := len(sources) - 1; i >= 0; i-- {
		if got := s.RowSlot(7, sources[i]); got != i {
			t.Errorf("RowSlot(7, %s) again = %d, want %d", sources[i], got, i)
		}
	}
	if diff := cmp.Diff(sources, s.RowSources(7)); diff != "" {
		t.Errorf("RowSources mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotsAreIndependentPerLine(t *testing.T) {
	s := NewSlotTracker()
	s.RowSlot(0, "a")
	if got := s.RowSlot(0, "b"); got != 1 {
		t.Errorf("RowSlot(0, b) = %d, want 1", got)
	}
	if got := s.RowSlot(1, "b"); got != 0 {
		t.Errorf("RowSlot(1, b) = %d, want 0", got)
	}
	// Rows and columns with the same index do not share slots.
	if got := s.ColumnSlot(0, "b"); got != 0 {
		t.Errorf("ColumnSlot(0, b) = %d, want 0", got)
	}
	if got := s.ColumnSources(3); got != nil {
		t.Errorf("ColumnSources(3) = %v, want nil", got)
	}
}

func TestSlotTrackerReset(t *testing.T) {
	s := NewSlotTracker()
	for i := range 3 {
		s.ColumnSlot(2, fmt.Sprintf("s%d", i))
	}
	s.Reset()
	if got := s.ColumnSlot(2, "s2"); got != 0 {
		t.Errorf("ColumnSlot after Reset = %d, want 0", got)
	}
}

func TestRowSourcesIsACopy(t *testing.T) {
	s := NewSlotTracker()
	s.RowSlot(0, "a")
	got := s.RowSources(0)
	got[0] = "mutated"
	if s.RowSources(0)[0] != "a" {
		t.Error("RowSources returned the tracker's own slice")
	}
}

package route

// SlotTracker hands out lateral offset indices ("slots") per row and per
// column so that buses from different sources crossing the same channel do
// not sit on top of each other.
//
// Slots are assigned in first-seen order and never reassigned: the first
// source asking about a row gets slot 0, the next 1, and asking again returns
// the same slot. A tracker lives for one routing pass.
type SlotTracker struct {
	rows map[int]*slotMap
	cols map[int]*slotMap
}

type slotMap struct {
	order []string
	index map[string]int
}

func (m *slotMap) slot(source string) int {
	if i, ok := m.index[source]; ok {
		return i
	}
	i := len(m.order)
	m.order = append(m.order, source)
	m.index[source] = i
	return i
}

// NewSlotTracker returns an empty tracker.
func NewSlotTracker() *SlotTracker {
	return &SlotTracker{rows: make(map[int]*slotMap), cols: make(map[int]*slotMap)}
}

// RowSlot returns the slot of source in row, assigning the next free one on
// first use.
func (s *SlotTracker) RowSlot(row int, source string) int {
	return lookup(s.rows, row).slot(source)
}

// ColumnSlot returns the slot of source in col, assigning the next free one
// on first use.
func (s *SlotTracker) ColumnSlot(col int, source string) int {
	return lookup(s.cols, col).slot(source)
}

// RowSources returns the sources seen in row, in slot order.
func (s *SlotTracker) RowSources(row int) []string {
	if m, ok := s.rows[row]; ok {
		return append([]string(nil), m.order...)
	}
	return nil
}

// ColumnSources returns the sources seen in col, in slot order.
func (s *SlotTracker) ColumnSources(col int) []string {
	if m, ok := s.cols[col]; ok {
		return append([]string(nil), m.order...)
	}
	return nil
}

// Reset forgets every assignment, for reuse in a new pass.
func (s *SlotTracker) Reset() {
	clear(s.rows)
	clear(s.cols)
}

func lookup(maps map[int]*slotMap, key int) *slotMap {
	m, ok := maps[key]
	if !ok {
		m = &slotMap{index: make(map[string]int)}
		maps[key] = m
	}
	return m
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/linkroute/pkg/geom"
	"github.com/matzehuels/linkroute/pkg/linktree"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	tableHeaderStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// TreeBrowserModel - Interactive tree browser
// =============================================================================

// TreeBrowserModel is the bubbletea model for browsing the trees of a pass.
// The list view shows one row per tree; enter opens the segments and drops
// of the selected tree.
type TreeBrowserModel struct {
	Trees  []*linktree.Tree
	Cursor int
	Height int
	Offset int
	// Detail is true while the selected tree's segments are shown.
	Detail bool
}

// NewTreeBrowserModel creates a new tree browser.
func NewTreeBrowserModel(trees []*linktree.Tree) TreeBrowserModel {
	return TreeBrowserModel{Trees: trees, Height: 15}
}

func (m TreeBrowserModel) Init() tea.Cmd {
	return nil
}

func (m TreeBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "backspace":
			if !m.Detail {
				return m, tea.Quit
			}
			m.Detail = false
		case "up", "k":
			if !m.Detail && m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if !m.Detail && m.Cursor < len(m.Trees)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Trees) > 0 {
				m.Detail = !m.Detail
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m TreeBrowserModel) View() string {
	var b strings.Builder

	if m.Detail {
		t := m.Trees[m.Cursor]
		b.WriteString(StyleTitle.Render("Tree " + t.Source))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("esc back  q quit"))
		b.WriteString("\n\n")
		b.WriteString(segmentTable(t).Render())
		b.WriteString("\n")
		b.WriteString(dropTable(t).Render())
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(StyleTitle.Render("Routed Trees"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Trees))
	var rows [][]string
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, treeRow(m.Trees[i])...))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(append([]string{""}, treeHeaders...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Trees))))

	return b.String()
}

// =============================================================================
// Tables
// =============================================================================

var treeHeaders = []string{"Source", "Shape", "Segments", "Length", "Targets"}

func treeRow(t *linktree.Tree) []string {
	var length float64
	for _, s := range t.Segments() {
		length += s.Length()
	}
	return []string{
		t.Source,
		t.Shape().String(),
		strconv.Itoa(t.SegmentCount()),
		formatFloat(length),
		strings.Join(t.Targets(), ", "),
	}
}

// treeTable lists every tree, for --plain output.
func treeTable(trees []*linktree.Tree) *table.Table {
	rows := make([][]string, len(trees))
	for i, t := range trees {
		rows[i] = treeRow(t)
	}
	return newTable(treeHeaders, rows)
}

func segmentTable(t *linktree.Tree) *table.Table {
	var rows [][]string
	for _, s := range t.Segments() {
		parent := "-"
		if !s.IsRoot() {
			parent = strconv.Itoa(int(s.Parent))
		}
		end := "-"
		if p, ok := s.End(); ok {
			end = formatPoint(p)
		}
		rows = append(rows, []string{
			strconv.Itoa(int(s.ID)), parent, formatPoint(s.Start()), end, formatFloat(s.Length()), s.Style,
		})
	}
	return newTable([]string{"ID", "Parent", "Start", "End", "Length", "Style"}, rows)
}

func dropTable(t *linktree.Tree) *table.Table {
	var rows [][]string
	for _, d := range t.Drops() {
		seg := "-"
		if !d.Conn.IsDirect() {
			seg = strconv.Itoa(int(d.Conn.Segment))
		}
		target := d.Target
		if target == "" {
			target = t.Source
		}
		rows = append(rows, []string{d.Kind.String(), target, seg, d.Conn.Sense.String(), d.Style})
	}
	return newTable([]string{"Drop", "Node", "Segment", "Sense", "Style"}, rows)
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// =============================================================================
// Helpers
// =============================================================================

func formatPoint(p geom.Point) string {
	return "(" + formatFloat(p.X) + ", " + formatFloat(p.Y) + ")"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

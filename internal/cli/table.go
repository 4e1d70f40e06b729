package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	muted  lipgloss.Style
	plain  bool
	r      *lipgloss.Renderer
}

func newStyles(w io.Writer, noColor bool) styles {
	r := lipgloss.NewRenderer(w)
	s := styles{
		title:  r.NewStyle().Bold(true),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		muted:  r.NewStyle(),
		plain:  noColor,
		r:      r,
	}
	if !noColor {
		s.title = s.title.Foreground(lipgloss.Color("#667eea"))
		s.muted = s.muted.Foreground(lipgloss.Color("#8d8d8d"))
	}
	return s
}

// swatch renders a colored marker for a macro area.
func (s styles) swatch(hex string) string {
	if s.plain {
		return "*"
	}
	return s.r.NewStyle().Foreground(lipgloss.Color(hex)).Render("●")
}

// table is a fixed-column text table.
type table struct {
	title   string
	headers []string
	rows    [][]string
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(s styles) string {
	var sb strings.Builder

	if t.title != "" {
		sb.WriteString(s.title.Render(t.title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	// room for the cell padding
	total := len(widths) - 1
	for i := range widths {
		widths[i] += 2
		total += widths[i]
	}

	sep := s.muted.Render("|")
	writeRow := func(style lipgloss.Style, cells []string) {
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			sb.WriteString(style.Width(widths[i]).Render(cell))
			if i < len(cells)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	writeRow(s.header, t.headers)
	sb.WriteString(s.muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for _, row := range t.rows {
		writeRow(s.cell, row)
	}

	return sb.String()
}

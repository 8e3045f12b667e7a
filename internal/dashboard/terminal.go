package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"habitjournal/internal/journal"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used by the terminal renderers.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Bar    lipgloss.Style
	Value  lipgloss.Style
	Muted  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
}

// DefaultStyles returns the styles used by the stats command.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0")),
		Bar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")),
		Value: lipgloss.NewStyle().
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1),
		Cell: lipgloss.NewStyle().
			Padding(0, 1),
	}
}

const barRune = "█"

// RenderChart draws c as horizontal bars scaled so the largest value spans
// width cells.
func RenderChart(c Chart, width int, styles Styles) string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(c.Title))
	sb.WriteString("\n")

	if len(c.Bars) == 0 {
		sb.WriteString(styles.Muted.Render("(no data)"))
		sb.WriteString("\n")
		return sb.String()
	}
	if width < 1 {
		width = 40
	}

	labelWidth := lipgloss.Width(c.XTitle)
	for _, b := range c.Bars {
		if w := lipgloss.Width(displayLabel(b.Label)); w > labelWidth {
			labelWidth = w
		}
	}

	top := c.Max()
	sb.WriteString(styles.Muted.Render(fmt.Sprintf("%-*s  %s", labelWidth, c.XTitle, c.YTitle)))
	sb.WriteString("\n")
	for _, b := range c.Bars {
		n := 0
		if top > 0 && b.Value > 0 {
			n = int(math.Round(b.Value / top * float64(width)))
			if n == 0 {
				n = 1
			}
		}
		sb.WriteString(styles.Label.Width(labelWidth).Render(displayLabel(b.Label)))
		sb.WriteString("  ")
		sb.WriteString(styles.Bar.Render(strings.Repeat(barRune, n)))
		sb.WriteString(" ")
		sb.WriteString(styles.Value.Render(formatValue(b.Value)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func displayLabel(s string) string {
	if s == "" {
		return "(blank)"
	}
	return s
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RenderTable draws the rows of t with padded columns.
func RenderTable(t *journal.Table, styles Styles) string {
	if t.Len() == 0 {
		return ""
	}

	widths := make([]int, len(t.Columns))
	for i, h := range t.Columns {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range t.Rows {
		for i, cell := range r {
			if i < len(widths) {
				if w := lipgloss.Width(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	// Padding counts toward the rendered width
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	sep := styles.Muted.Render("|")
	for i, h := range t.Columns {
		sb.WriteString(styles.Header.Width(widths[i]).Render(h))
		if i < len(t.Columns)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")

	total := 0
	for _, w := range widths {
		total += w
	}
	total += len(widths) - 1
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, r := range t.Rows {
		for i := range t.Columns {
			cell := ""
			if i < len(r) {
				cell = r[i]
			}
			sb.WriteString(styles.Cell.Width(widths[i]).Render(cell))
			if i < len(t.Columns)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderMarkdown renders analysis text for a terminal. An empty style picks
// one from the terminal background.
func RenderMarkdown(md string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// RenderSummary lays out every chart of s, one under the other.
func RenderSummary(s *Summary, width int, styles Styles) string {
	blocks := []string{
		styles.Muted.Render(fmt.Sprintf("%d entries", s.Rows)),
		RenderChart(s.UrgeByCoping, width, styles),
		RenderChart(s.EntriesByHour, width, styles),
		RenderChart(s.ScoreByCoping, width, styles),
	}
	if s.Skipped > 0 {
		blocks = append(blocks, styles.Muted.Render(fmt.Sprintf("%d unreadable cells skipped", s.Skipped)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

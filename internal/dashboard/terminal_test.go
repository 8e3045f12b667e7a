package dashboard

import (
	"strings"
	"testing"

	"habitjournal/internal/journal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderChart_ScalesToWidth(t *testing.T) {
	c := Chart{
		Title:  "Average Urge Intensity by Coping Mechanism",
		XTitle: "Coping Mechanism",
		YTitle: "Average Urge Intensity",
		Bars: []Bar{
			{Label: "", Value: 2, Count: 1},
			{Label: "Walk", Value: 8, Count: 2},
			{Label: "Call", Value: 0.04, Count: 1},
		},
	}

	out := RenderChart(c, 20, Styles{})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, c.Title, lines[0])
	assert.Contains(t, lines[1], "Coping Mechanism")
	assert.Contains(t, lines[2], "(blank)")
	assert.Equal(t, 5, strings.Count(lines[2], barRune))
	assert.Equal(t, 20, strings.Count(lines[3], barRune))
	assert.True(t, strings.HasSuffix(lines[3], " 8"))
	// Tiny positive values still get one cell
	assert.Equal(t, 1, strings.Count(lines[4], barRune))
	assert.True(t, strings.HasSuffix(lines[4], " 0.04"))
}

func TestRenderChart_Empty(t *testing.T) {
	out := RenderChart(Chart{Title: "Distribution of Entries by Hour of Day"}, 20, Styles{})
	assert.Contains(t, out, "(no data)")
}

func TestRenderTable(t *testing.T) {
	tbl := journal.NewTable("Date", "Situation")
	tbl.Rows = [][]string{{"2024-05-03", "after work"}, {"2024-05-04"}}

	out := RenderTable(tbl, Styles{})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Date")
	assert.Contains(t, lines[0], "|")
	assert.Contains(t, lines[2], "after work")
	assert.Contains(t, lines[3], "2024-05-04")

	assert.Empty(t, RenderTable(journal.NewTable("Date"), Styles{}))
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("## Insights\n\nWalking **helps**.", 60, "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "Insights")
	assert.Contains(t, out, "helps")
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(Build(fixture(), ""), 30, Styles{})
	assert.Contains(t, out, "5 entries")
	assert.Contains(t, out, "Distribution of Entries by Hour of Day")
	assert.Contains(t, out, "3 unreadable cells skipped")
}

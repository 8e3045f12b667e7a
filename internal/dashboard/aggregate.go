// Package dashboard computes the aggregate views of the journal.
package dashboard

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"habitjournal/internal/journal"
	"habitjournal/internal/logging"
)

// Bar is one bar of a chart.
type Bar struct {
	Label string
	Value float64
	Count int // rows that contributed to Value
}

// Chart is a titled bar chart.
type Chart struct {
	Title  string
	XTitle string
	YTitle string
	Bars   []Bar
}

// Max returns the largest bar value, or 0.
func (c Chart) Max() float64 {
	var m float64
	for _, b := range c.Bars {
		if b.Value > m {
			m = b.Value
		}
	}
	return m
}

// Summary is everything the dashboard shows for one table.
type Summary struct {
	Rows           int
	EmotionOptions []string
	EmotionFilter  string
	Filtered       *journal.Table
	UrgeByCoping   Chart
	EntriesByHour  Chart
	ScoreByCoping  Chart
	Skipped        int // cells that could not be read as numbers or times
}

// Build blank-fills a copy of t and computes every view. filter selects the
// Emotion Before value to list; when it is not among the options the first
// option is used.
func Build(t *journal.Table, filter string) *Summary {
	t = t.Clone()
	t.FillBlanks()

	s := &Summary{Rows: t.Len()}

	s.EmotionOptions = t.Unique(journal.ColEmotionBefore)
	s.EmotionFilter = pickFilter(s.EmotionOptions, filter)
	s.Filtered = t.Filter(journal.ColEmotionBefore, s.EmotionFilter)

	var skipped int
	s.UrgeByCoping = Chart{
		Title:  "Average Urge Intensity by Coping Mechanism",
		XTitle: "Coping Mechanism",
		YTitle: "Average Urge Intensity",
	}
	s.UrgeByCoping.Bars, skipped = MeanByGroup(t, journal.ColCopingMechanism, journal.ColUrgeIntensity)
	s.Skipped += skipped

	s.EntriesByHour = Chart{
		Title:  "Distribution of Entries by Hour of Day",
		XTitle: "Hour of Day",
		YTitle: "Number of Entries",
	}
	s.EntriesByHour.Bars, skipped = CountByHour(t, journal.ColTime)
	s.Skipped += skipped

	s.ScoreByCoping = Chart{
		Title:  "Distribution of Coping Mechanism Scores by Coping Mechanism",
		XTitle: "Coping Mechanism",
		YTitle: "Coping Mechanism Score",
	}
	s.ScoreByCoping.Bars, skipped = SumByGroup(t, journal.ColCopingMechanism, journal.ColCopingScore)
	s.Skipped += skipped

	if s.Skipped > 0 {
		logging.Get(logging.CategoryDashboard).Warn("skipped %d unreadable cells while aggregating %d rows", s.Skipped, s.Rows)
	}
	return s
}

func pickFilter(options []string, want string) string {
	for _, o := range options {
		if o == want {
			return want
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return ""
}

type group struct {
	sum   float64
	count int
}

// groupNumbers sums valueCol per exact groupCol value. Cells that are not
// numbers are skipped and counted.
func groupNumbers(t *journal.Table, groupCol, valueCol string) (map[string]*group, int) {
	gi, vi := t.Index(groupCol), t.Index(valueCol)
	groups := make(map[string]*group)
	if gi < 0 || vi < 0 {
		return groups, 0
	}

	skipped := 0
	for _, row := range t.Rows {
		key := row[gi]
		v, err := strconv.ParseFloat(strings.TrimSpace(row[vi]), 64)
		if err != nil {
			skipped++
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.sum += v
		g.count++
	}
	return groups, skipped
}

func sortedBars(groups map[string]*group, value func(*group) float64) []Bar {
	bars := make([]Bar, 0, len(groups))
	for k, g := range groups {
		bars = append(bars, Bar{Label: k, Value: value(g), Count: g.count})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Label < bars[j].Label })
	return bars
}

// MeanByGroup averages valueCol per distinct groupCol value, sorted by label.
func MeanByGroup(t *journal.Table, groupCol, valueCol string) ([]Bar, int) {
	groups, skipped := groupNumbers(t, groupCol, valueCol)
	return sortedBars(groups, func(g *group) float64 { return g.sum / float64(g.count) }), skipped
}

// SumByGroup totals valueCol per distinct groupCol value, which is the height
// of a stacked bar of the raw values.
func SumByGroup(t *journal.Table, groupCol, valueCol string) ([]Bar, int) {
	groups, skipped := groupNumbers(t, groupCol, valueCol)
	return sortedBars(groups, func(g *group) float64 { return g.sum }), skipped
}

var timeLayouts = []string{
	"15:04:05", // also accepts a fractional second
	"15:04",
	"3:04 PM",
	"3:04:05 PM",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseHour extracts the hour of day from a time-of-day or timestamp cell.
func ParseHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Hour(), true
		}
	}
	return 0, false
}

// CountByHour counts rows per hour of timeCol, ascending by hour.
func CountByHour(t *journal.Table, timeCol string) ([]Bar, int) {
	i := t.Index(timeCol)
	if i < 0 {
		return nil, 0
	}

	counts := make(map[int]int)
	skipped := 0
	for _, row := range t.Rows {
		h, ok := ParseHour(row[i])
		if !ok {
			skipped++
			continue
		}
		counts[h]++
	}

	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	bars := make([]Bar, len(hours))
	for j, h := range hours {
		bars[j] = Bar{Label: strconv.Itoa(h), Value: float64(counts[h]), Count: counts[h]}
	}
	return bars, skipped
}

package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"habitjournal/internal/dashboard"
	"habitjournal/internal/journal"
	"habitjournal/internal/logging"
	"habitjournal/internal/session"
	"habitjournal/internal/tags"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templateFS embed.FS

// tagBox is one sidebar checkbox.
type tagBox struct {
	Label   string
	Checked bool
}

type tagGroupView struct {
	Name  string
	Title string
	Boxes []tagBox
}

type formView struct {
	Date, MinDate, MaxDate string
	Time                   string
	EmotionBefore          string
	CopingMechanism        string
	EmotionAfter           string
	MinScore, MaxScore     int
	DefaultScore           int
}

type editorView struct {
	Missing bool
	Columns []string
	Rows    [][]editorCell
}

type editorCell struct {
	Name  string
	Value string
}

type barView struct {
	Label string
	Value string
	Pct   float64
}

type chartView struct {
	Title  string
	XTitle string
	YTitle string
	Bars   []barView
}

type dashboardView struct {
	Rows          int
	Options       []string
	Filter        string
	FilterColumns []string
	FilterRows    [][]string
	Charts        []chartView
	Skipped       int
	Analysis      template.HTML
}

type pageView struct {
	Flashes   []session.Flash
	Tags      []tagGroupView
	Form      formView
	Editor    *editorView
	Dashboard *dashboardView
}

type pageRenderer struct {
	tmpl     *template.Template
	md       goldmark.Markdown
	sanitize *bluemonday.Policy
}

func newPageRenderer(sanitize bool) (*pageRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	p := &pageRenderer{
		tmpl: tmpl,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
	if sanitize {
		p.sanitize = bluemonday.UGCPolicy()
	}
	return p, nil
}

func (p *pageRenderer) render(w io.Writer, v *pageView) error {
	return p.tmpl.ExecuteTemplate(w, "page.html", v)
}

// markdown converts the analysis text to HTML. Raw HTML in the text is passed
// through unless sanitizing is on.
func (p *pageRenderer) markdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(src), &buf); err != nil {
		logging.Get(logging.CategoryDashboard).Warn("markdown conversion failed: %v", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	out := buf.Bytes()
	if p.sanitize != nil {
		out = p.sanitize.SanitizeBytes(out)
	}
	return template.HTML(out)
}

func (s *Server) buildView(st *session.State) *pageView {
	now := s.deps.Now()
	minDate, maxDate := journal.DateBounds(now, s.cfg.DateWindowDays)

	v := &pageView{
		Flashes: st.TakeFlashes(),
		Form: formView{
			Date:            now.Format(journal.DateLayout),
			MinDate:         minDate.Format(journal.DateLayout),
			MaxDate:         maxDate.Format(journal.DateLayout),
			Time:            now.Format(journal.TimeLayout),
			EmotionBefore:   strings.Join(st.Selected[tags.GroupEmotions], ", "),
			CopingMechanism: strings.Join(st.Selected[tags.GroupCoping], ", "),
			EmotionAfter:    strings.Join(st.Selected[tags.GroupAfterEmotions], ", "),
			MinScore:        journal.MinScore,
			MaxScore:        journal.MaxScore,
			DefaultScore:    journal.DefaultScore,
		},
	}

	for _, g := range tags.Groups {
		picked := make(map[string]bool)
		for _, l := range st.Selected[g] {
			picked[l] = true
		}
		gv := tagGroupView{Name: string(g), Title: g.Title()}
		for _, l := range s.deps.Tags.Labels(g) {
			gv.Boxes = append(gv.Boxes, tagBox{Label: l, Checked: picked[l]})
		}
		v.Tags = append(v.Tags, gv)
	}

	if st.ShowEditor {
		v.Editor = s.buildEditor()
	}

	if st.Loaded != nil {
		sum := dashboard.Build(st.Loaded, st.EmotionFilter)
		st.EmotionFilter = sum.EmotionFilter
		v.Dashboard = &dashboardView{
			Rows:          sum.Rows,
			Options:       sum.EmotionOptions,
			Filter:        sum.EmotionFilter,
			FilterColumns: sum.Filtered.Columns,
			FilterRows:    sum.Filtered.Rows,
			Charts: []chartView{
				chartFor(sum.UrgeByCoping),
				chartFor(sum.EntriesByHour),
				chartFor(sum.ScoreByCoping),
			},
			Skipped:  sum.Skipped,
			Analysis: s.page.markdown(st.Analysis),
		}
	}
	return v
}

func (s *Server) buildEditor() *editorView {
	t, err := s.deps.Store.Load()
	if err != nil {
		if !errors.Is(err, journal.ErrNoData) {
			logging.Get(logging.CategoryJournal).Warn("editor load failed: %v", err)
		}
		return &editorView{Missing: true}
	}
	t.FillBlanks()

	ev := &editorView{Columns: t.Columns}
	for i, row := range t.Rows {
		cells := make([]editorCell, len(t.Columns))
		for j := range t.Columns {
			cells[j] = editorCell{Name: cellField(i, j), Value: row[j]}
		}
		ev.Rows = append(ev.Rows, cells)
	}
	return ev
}

func chartFor(c dashboard.Chart) chartView {
	cv := chartView{Title: c.Title, XTitle: c.XTitle, YTitle: c.YTitle}
	top := c.Max()
	for _, b := range c.Bars {
		pct := 0.0
		if top > 0 && b.Value > 0 {
			pct = b.Value / top * 100
		}
		label := b.Label
		if label == "" {
			label = "(blank)"
		}
		cv.Bars = append(cv.Bars, barView{
			Label: label,
			Value: strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", b.Value), "0"), "."),
			Pct:   pct,
		})
	}
	return cv
}

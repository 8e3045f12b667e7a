package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"habitjournal/internal/analysis"
	"habitjournal/internal/journal"
	"habitjournal/internal/logging"
	"habitjournal/internal/session"
	"habitjournal/internal/sheets"
	"habitjournal/internal/tags"
)

// Form field names of the entry form.
const (
	fieldDate                = "date"
	fieldTime                = "time"
	fieldEmotionBefore       = "emotion_before"
	fieldSituation           = "situation"
	fieldUrgeIntensity       = "urge_intensity"
	fieldMoodRating          = "mood_rating"
	fieldCopingMechanism     = "coping_mechanism"
	fieldEmotionAfter        = "emotion_after"
	fieldBehaviouralThoughts = "behavioural_thoughts"
	fieldCopingScore         = "coping_score"
)

const (
	msgNoData       = "No data available"
	msgNoDataClear  = "No data to clear"
	msgCleared      = "Data cleared successfully"
	msgSubmitted    = "Entry submitted successfully"
	msgEditorSaved  = "Changes saved"
	msgErrorPattern = "An error occurred: %v"
)

// withSession runs fn on the caller's state and refreshes the cookie when a
// new session had to be created.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session.State)) {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	if got := s.deps.Sessions.Do(id, fn); got != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    got,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func backToPage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var v *pageView
	s.withSession(w, r, func(st *session.State) {
		v = s.buildView(st)
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.render(w, v); err != nil {
		logging.Get(logging.CategoryHTTP).Error("failed to render page: %v", err)
	}
}

// parseEntry reads the entry form. Values the widgets could not have produced
// fall back to the widget defaults before clamping.
func (s *Server) parseEntry(r *http.Request) journal.Entry {
	now := s.deps.Now()
	e := journal.NewEntry(now)

	if d, err := time.ParseInLocation(journal.DateLayout, r.PostFormValue(fieldDate), now.Location()); err == nil {
		e.Date = d
	}
	if t, ok := parseClock(r.PostFormValue(fieldTime)); ok {
		e.Time = t
	}

	e.EmotionBefore = r.PostFormValue(fieldEmotionBefore)
	e.Situation = r.PostFormValue(fieldSituation)
	e.CopingMechanism = r.PostFormValue(fieldCopingMechanism)
	e.EmotionAfter = r.PostFormValue(fieldEmotionAfter)
	e.BehaviouralThoughts = r.PostFormValue(fieldBehaviouralThoughts)

	e.UrgeIntensity = formInt(r, fieldUrgeIntensity, journal.DefaultScore)
	e.MoodRating = formInt(r, fieldMoodRating, journal.DefaultScore)
	e.CopingScore = formInt(r, fieldCopingScore, journal.DefaultScore)

	e.Clamp(now, s.cfg.DateWindowDays)
	return e
}

func parseClock(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{journal.TimeLayout, "15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formInt reads an integer field. Values out of int range saturate so they
// still clamp to the slider bounds; anything else unparseable is fallback.
func formInt(r *http.Request, field string, fallback int) int {
	v := strings.TrimSpace(r.PostFormValue(field))
	n, err := strconv.Atoi(v)
	switch {
	case err == nil:
		return n
	case errors.Is(err, strconv.ErrRange) && strings.HasPrefix(v, "-"):
		return math.MinInt
	case errors.Is(err, strconv.ErrRange):
		return math.MaxInt
	}
	return fallback
}

// syncContext detaches the sync from the request. The worksheet is cleared
// before it is rewritten, so a sync stopped halfway leaves it empty.
func syncContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) handleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	entry := s.parseEntry(r)

	t, err := s.deps.Store.Append(entry)
	if err != nil {
		logging.Get(logging.CategoryJournal).Error("append failed: %v", err)
		s.withSession(w, r, func(st *session.State) {
			st.Flash(session.LevelError, fmt.Sprintf(msgErrorPattern, err))
		})
		backToPage(w, r)
		return
	}
	logging.Journal("entry for %s saved (%d rows)", entry.Date.Format(journal.DateLayout), t.Len())

	var res sheets.Result
	if s.deps.Syncer != nil {
		res = s.deps.Syncer.Sync(syncContext(r))
	} else {
		res = sheets.Result{Kind: sheets.KindConfig, Err: sheets.ErrDisabled}
	}

	s.withSession(w, r, func(st *session.State) {
		st.Flash(session.LevelSuccess, msgSubmitted)
		st.Flash(syncLevel(res), res.Message())
		st.ResetEntry()
	})
	backToPage(w, r)
}

// syncLevel maps a sync outcome to a notice level. A sync that is switched
// off is not an error.
func syncLevel(res sheets.Result) session.Level {
	switch {
	case res.OK():
		return session.LevelSuccess
	case errors.Is(res.Err, sheets.ErrDisabled):
		return session.LevelInfo
	case res.Kind == sheets.KindNoLocalData:
		return session.LevelWarning
	}
	return session.LevelError
}

func (s *Server) handleSelectTags(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	s.withSession(w, r, func(st *session.State) {
		for _, g := range tags.Groups {
			st.SetSelected(g, r.PostForm[string(g)])
		}
	})
	backToPage(w, r)
}

func (s *Server) handleToggleEditor(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(st *session.State) {
		st.ShowEditor = !st.ShowEditor
	})
	backToPage(w, r)
}

func cellField(row, col int) string {
	return fmt.Sprintf("cell_%d_%d", row, col)
}

// handleSaveEditor rewrites the whole file from the bulk editor. The row
// count and header are those of the file; a cell missing from the form
// keeps its current value.
func (s *Server) handleSaveEditor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	level, msg := session.LevelSuccess, msgEditorSaved
	rows := 0
	err := s.deps.Store.Edit(func(t *journal.Table) {
		t.FillBlanks()
		for i := range t.Rows {
			for j := range t.Columns {
				if vals, ok := r.PostForm[cellField(i, j)]; ok && len(vals) > 0 {
					t.Rows[i][j] = vals[0]
				}
			}
		}
		rows = t.Len()
	})
	switch {
	case errors.Is(err, journal.ErrNoData):
		level, msg = session.LevelWarning, msgNoData
	case err != nil:
		level, msg = session.LevelError, fmt.Sprintf(msgErrorPattern, err)
	default:
		logging.Journal("bulk edit rewrote %d rows", rows)
	}

	s.withSession(w, r, func(st *session.State) {
		st.Flash(level, msg)
	})
	backToPage(w, r)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var (
		text  string
		level session.Level
		msg   string
	)

	t, err := s.deps.Store.Load()
	switch {
	case errors.Is(err, journal.ErrNoData):
		level, msg = session.LevelWarning, msgNoData
	case err != nil:
		level, msg = session.LevelError, fmt.Sprintf(msgErrorPattern, err)
	case s.deps.Analyzer == nil:
		level, msg = session.LevelError, fmt.Sprintf(msgErrorPattern, analysis.ErrNotConfigured)
	default:
		text, err = s.deps.Analyzer.Analyze(r.Context(), t)
		if err != nil {
			logging.Get(logging.CategoryAnalysis).Error("analysis failed: %v", err)
			level, msg = session.LevelError, fmt.Sprintf(msgErrorPattern, err)
		}
	}

	s.withSession(w, r, func(st *session.State) {
		if msg != "" {
			st.Flash(level, msg)
			return
		}
		st.Analysis = text
	})
	backToPage(w, r)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	level, msg := session.LevelSuccess, msgCleared
	err := s.deps.Store.Clear()
	switch {
	case errors.Is(err, journal.ErrNoData):
		level, msg = session.LevelWarning, msgNoDataClear
	case err != nil:
		level, msg = session.LevelError, fmt.Sprintf(msgErrorPattern, err)
	}

	s.withSession(w, r, func(st *session.State) {
		st.Flash(level, msg)
	})
	backToPage(w, r)
}

// handleLoadDashboard caches the current file in the session. A failed load
// keeps whatever was cached before.
func (s *Server) handleLoadDashboard(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Store.Load()

	s.withSession(w, r, func(st *session.State) {
		switch {
		case errors.Is(err, journal.ErrNoData):
			st.Flash(session.LevelWarning, msgNoData)
		case err != nil:
			st.Flash(session.LevelError, fmt.Sprintf(msgErrorPattern, err))
		default:
			st.Loaded = t
			logging.Dashboard("loaded %d rows into session", t.Len())
		}
	})
	backToPage(w, r)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	s.withSession(w, r, func(st *session.State) {
		st.EmotionFilter = r.PostFormValue("emotion")
	})
	backToPage(w, r)
}

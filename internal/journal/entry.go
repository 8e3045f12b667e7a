// Package journal holds the Journal Entry model and its flat-file storage:
// an append-only CSV table with a row-oriented JSON mirror.
package journal

import (
	"strconv"
	"time"
)

// Column names, in file order.
const (
	ColDate                = "Date"
	ColTime                = "Time"
	ColEmotionBefore       = "Emotion Before"
	ColSituation           = "Situation"
	ColUrgeIntensity       = "Urge Intensity"
	ColMoodRating          = "Mood Rating"
	ColCopingMechanism     = "Coping Mechanism"
	ColEmotionAfter        = "Emotion After"
	ColBehaviouralThoughts = "Behavioural Thoughts"
	ColCopingScore         = "Coping Mechanism Score"
)

// Columns is the fixed schema of an entry.
var Columns = []string{
	ColDate,
	ColTime,
	ColEmotionBefore,
	ColSituation,
	ColUrgeIntensity,
	ColMoodRating,
	ColCopingMechanism,
	ColEmotionAfter,
	ColBehaviouralThoughts,
	ColCopingScore,
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"

	MinScore     = 1
	MaxScore     = 10
	DefaultScore = 5
)

// Entry is one journaling record.
type Entry struct {
	Date                time.Time
	Time                time.Time // only the clock part is used
	EmotionBefore       string
	Situation           string
	UrgeIntensity       int
	MoodRating          int
	CopingMechanism     string
	EmotionAfter        string
	BehaviouralThoughts string
	CopingScore         int
}

// NewEntry returns an entry dated now with every slider at its default.
func NewEntry(now time.Time) Entry {
	return Entry{
		Date:          now,
		Time:          now,
		UrgeIntensity: DefaultScore,
		MoodRating:    DefaultScore,
		CopingScore:   DefaultScore,
	}
}

// Clamp applies the widget bounds: sliders to [MinScore, MaxScore] and the
// date to the trailing window ending today.
func (e *Entry) Clamp(today time.Time, windowDays int) {
	e.UrgeIntensity = ClampScore(e.UrgeIntensity)
	e.MoodRating = ClampScore(e.MoodRating)
	e.CopingScore = ClampScore(e.CopingScore)
	e.Date = ClampDate(e.Date, today, windowDays)
}

// Record renders the entry as a row keyed by Columns.
func (e Entry) Record() Record {
	return Record{
		Columns: Columns,
		Values: []string{
			e.Date.Format(DateLayout),
			e.Time.Format(TimeLayout),
			e.EmotionBefore,
			e.Situation,
			strconv.Itoa(e.UrgeIntensity),
			strconv.Itoa(e.MoodRating),
			e.CopingMechanism,
			e.EmotionAfter,
			e.BehaviouralThoughts,
			strconv.Itoa(e.CopingScore),
		},
	}
}

// ClampScore bounds a slider value to [MinScore, MaxScore].
func ClampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// DateBounds returns the earliest and latest selectable dates (midnight, in
// today's location). A window of 7 days allows today and the six before it.
func DateBounds(today time.Time, windowDays int) (time.Time, time.Time) {
	if windowDays < 1 {
		windowDays = 1
	}
	y, m, d := today.Date()
	max := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	return max.AddDate(0, 0, -(windowDays - 1)), max
}

// ClampDate bounds d to DateBounds(today, windowDays).
func ClampDate(d, today time.Time, windowDays int) time.Time {
	min, max := DateBounds(today, windowDays)
	y, m, day := d.Date()
	d = time.Date(y, m, day, 0, 0, 0, 0, today.Location())
	if d.Before(min) {
		return min
	}
	if d.After(max) {
		return max
	}
	return d
}

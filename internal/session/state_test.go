package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"habitjournal/internal/journal"
	"habitjournal/internal/tags"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestStore_DefaultsForNewSession(t *testing.T) {
	st := NewStore(0)

	var got State
	id := st.Do("", func(s *State) { got = *s })

	require.NotEmpty(t, id)
	assert.False(t, got.ShowEditor)
	assert.Empty(t, got.Analysis)
	assert.Nil(t, got.Loaded)
	assert.Empty(t, got.EmotionFilter)
	assert.NotNil(t, got.Selected)
	assert.Equal(t, 1, st.Len())
}

func TestStore_StateSurvivesAcrossRequests(t *testing.T) {
	st := NewStore(0)

	id := st.Do("", func(s *State) {
		s.ShowEditor = true
		s.Analysis = "## Insights"
		s.Loaded = journal.NewTable(journal.Columns...)
	})
	again := st.Do(id, func(s *State) {
		assert.True(t, s.ShowEditor)
		assert.Equal(t, "## Insights", s.Analysis)
		assert.NotNil(t, s.Loaded)
	})
	assert.Equal(t, id, again)
}

func TestStore_UnknownIDGetsFreshState(t *testing.T) {
	st := NewStore(0)
	st.Do("", func(s *State) { s.ShowEditor = true })

	id := st.Do("not-a-session", func(s *State) {
		assert.False(t, s.ShowEditor)
	})
	assert.NotEqual(t, "not-a-session", id)
	assert.Equal(t, 2, st.Len())
}

func TestState_FlashesAreOneShot(t *testing.T) {
	s := newState(time.Now())
	s.Flash(LevelSuccess, "Journal entry submitted successfully!")
	s.Flash(LevelError, "An error occurred: boom")

	got := s.TakeFlashes()
	require.Len(t, got, 2)
	assert.Equal(t, LevelSuccess, got[0].Level)
	assert.Equal(t, "An error occurred: boom", got[1].Message)
	assert.Empty(t, s.TakeFlashes())
}

func TestState_SelectedCopiesAndResets(t *testing.T) {
	s := newState(time.Now())
	picks := []string{"Anxious", "Bored"}
	s.SetSelected(tags.GroupEmotions, picks)
	picks[0] = "changed"

	assert.Equal(t, []string{"Anxious", "Bored"}, s.Selected[tags.GroupEmotions])
	s.ResetEntry()
	assert.Empty(t, s.Selected)
}

func TestStore_Sweep(t *testing.T) {
	now := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)
	st := NewStore(time.Hour)
	st.now = func() time.Time { return now }

	old := st.Do("", func(*State) {})
	now = now.Add(45 * time.Minute)
	fresh := st.Do("", func(*State) {})
	now = now.Add(30 * time.Minute)

	assert.Equal(t, 1, st.Sweep())
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, fresh, st.Do(fresh, func(*State) {}))
	assert.NotEqual(t, old, st.Do(old, func(*State) {}))

	assert.Zero(t, NewStore(0).Sweep())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	st := NewStore(0)
	id := st.Do("", func(*State) {})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Do(id, func(s *State) { s.Flash(LevelInfo, "x") })
		}()
	}
	wg.Wait()

	st.Do(id, func(s *State) {
		assert.Len(t, s.TakeFlashes(), 50)
	})
}

func TestStore_RunSweeperStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	st := NewStore(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- st.RunSweeper(ctx, time.Millisecond) }()

	st.Do("", func(*State) {})
	assert.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

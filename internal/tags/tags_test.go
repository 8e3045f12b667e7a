package tags

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"[Anxious],\n", "Anxious"},
		{"  [Lonely],  ", "Lonely"},
		{"-Bored.\n", "Bore"},
		{"- Anxious\n", " Anxio"},
		{"[Überwältigt],", "Überwältigt"},
		{"ab", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.line), "line %q", tt.line)
	}
}

func TestParse_PreservesOrderAndDuplicates(t *testing.T) {
	in := "[Sad],\n\n[Angry],\n[Sad],\n"
	labels, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Sad", "Angry", "Sad"}, labels)
}

func writeTags(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestCatalog_Reload(t *testing.T) {
	dir := t.TempDir()
	c := NewCatalog(map[Group]string{
		GroupEmotions:      writeTags(t, dir, "emotions.md", "[Anxious],\n[Tired],\n"),
		GroupCoping:        writeTags(t, dir, "cope.md", "[Walk],\n"),
		GroupAfterEmotions: filepath.Join(dir, "after_emotions.md"), // missing
	})

	require.NoError(t, c.Reload())
	assert.Equal(t, []string{"Anxious", "Tired"}, c.Labels(GroupEmotions))
	assert.Equal(t, []string{"Walk"}, c.Labels(GroupCoping))
	assert.Empty(t, c.Labels(GroupAfterEmotions))

	labels := c.Labels(GroupEmotions)
	labels[0] = "mutated"
	assert.Equal(t, "Anxious", c.Labels(GroupEmotions)[0])
}

func TestGroupTitle(t *testing.T) {
	assert.Equal(t, "Coping Mechanism Tags (Optional)", GroupCoping.Title())
	assert.Equal(t, "Emotion After Tags (Optional)", GroupAfterEmotions.Title())
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := writeTags(t, dir, "cope.md", "[Walk],\n")
	c := NewCatalog(map[Group]string{GroupCoping: path})
	require.NoError(t, c.Reload())

	w, err := NewWatcher(c)
	require.NoError(t, err)
	w.debounceDur = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("[Walk],\n[Music],\n"), 0644))

	assert.Eventually(t, func() bool {
		return len(c.Labels(GroupCoping)) == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, w.Reloads(), 1)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

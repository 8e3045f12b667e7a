package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, enabled map[string]bool) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core), enabled)
	t.Cleanup(Reset)
	return logs
}

func TestGet_AttachesCategory(t *testing.T) {
	logs := observe(t, nil)

	Get(CategoryJournal).Info("appended %d rows", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "appended 3 rows", entries[0].Message)
	assert.Equal(t, "journal", entries[0].ContextMap()["category"])
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestGet_DisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t, map[string]bool{"sync": false, "tags": true})

	Get(CategorySync).Error("should not appear")
	Tags("loaded %s", "emotions.md")
	Get(CategoryHTTP).Warn("unlisted categories stay enabled")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "tags", entries[0].ContextMap()["category"])
	assert.Equal(t, "http", entries[1].ContextMap()["category"])
}

func TestWithRequestID(t *testing.T) {
	logs := observe(t, nil)

	WithRequestID(CategoryHTTP, "abc123").Info("POST /entries")

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "abc123", ctx["req"])
	assert.Equal(t, "http", ctx["category"])
}

func TestUninitializedIsNoop(t *testing.T) {
	Reset()
	assert.NotPanics(t, func() {
		Get(CategoryBoot).Info("nothing %s", "here")
		Boot("still nothing")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARNING", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestInitialize_RejectsUnknownFormat(t *testing.T) {
	t.Cleanup(Reset)
	err := Initialize(Options{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestTimer_StopWithThreshold(t *testing.T) {
	logs := observe(t, nil)

	timer := StartTimer(CategorySync, "sync")
	timer.start = time.Now().Add(-2 * time.Second)
	timer.StopWithThreshold(time.Second)

	entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "sync took")
}

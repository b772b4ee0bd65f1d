package client

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/focusstreak/models"
	"github.com/cppla/focusstreak/streak"
)

func TestObserveHistory_OneEntryPerDay(t *testing.T) {
	cal := streak.NewCalendar(time.UTC)
	morning := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)
	rec := models.StreakRecord{CurrentStreak: 2}

	entries := ObserveHistory(nil, 2, rec, cal, morning)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-05-01", entries[0].Date)

	entries = ObserveHistory(entries, 3, rec, cal, morning.Add(10*time.Hour))
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Streak, "today's entry is refreshed")

	reset := morning.Add(24 * time.Hour)
	rec.LastResetDate = &reset
	entries = ObserveHistory(entries, 0, rec, cal, reset)
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-05-02", entries[0].Date)
	assert.Equal(t, "2024-05-02T08:00:00Z", entries[0].ResetDate)
	assert.Equal(t, "2024-05-01", entries[1].Date)
}

func TestObserveHistory_Cap(t *testing.T) {
	cal := streak.NewCalendar(time.UTC)
	start := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	var entries []models.HistoryEntry
	for i := 0; i < 45; i++ {
		entries = ObserveHistory(entries, i+1, models.StreakRecord{CurrentStreak: i + 1}, cal, start.AddDate(0, 0, i))
	}
	require.Len(t, entries, HistoryRetained)
	assert.Equal(t, 45, entries[0].Streak)
	assert.Equal(t, "2024-02-14", entries[0].Date)

	seen := map[string]bool{}
	for _, e := range entries {
		assert.False(t, seen[e.Date], fmt.Sprintf("duplicate day %s", e.Date))
		seen[e.Date] = true
	}

	assert.Len(t, Recent(entries, HistoryShown), HistoryShown)
	assert.Len(t, Recent(entries[:3], HistoryShown), 3)
}

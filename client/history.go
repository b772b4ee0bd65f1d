package client

import (
	"time"

	"github.com/cppla/focusstreak/models"
	"github.com/cppla/focusstreak/streak"
)

const (
	// HistoryRetained caps the stored activity log.
	HistoryRetained = 30
	// HistoryShown is how many entries a shell displays.
	HistoryShown = 10
)

// ObserveHistory records the streak seen today. The log keeps at most one
// entry per calendar day: today's entry is refreshed in place if present,
// otherwise a new one is prepended. The result is capped at HistoryRetained.
func ObserveHistory(entries []models.HistoryEntry, displayStreak int, rec models.StreakRecord, cal streak.Calendar, now time.Time) []models.HistoryEntry {
	entry := models.HistoryEntry{
		Date:   cal.Today(now).String(),
		Streak: displayStreak,
	}
	if rec.LastResetDate != nil {
		entry.ResetDate = rec.LastResetDate.UTC().Format(time.RFC3339)
	}

	out := make([]models.HistoryEntry, 0, len(entries)+1)
	out = append(out, entry)
	for _, e := range entries {
		if e.Date == entry.Date {
			continue
		}
		out = append(out, e)
	}
	if len(out) > HistoryRetained {
		out = out[:HistoryRetained]
	}
	return out
}

// Recent returns up to n leading entries.
func Recent(entries []models.HistoryEntry, n int) []models.HistoryEntry {
	if n < 0 || len(entries) <= n {
		return entries
	}
	return entries[:n]
}

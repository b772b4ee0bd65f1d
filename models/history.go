package models

// HistoryEntry is one line of the recent-activity log.
type HistoryEntry struct {
	Date      string `json:"date"`
	Streak    int    `json:"streak"`
	ResetDate string `json:"resetDate,omitempty"`
}

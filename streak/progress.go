package streak

// Progress is the goal progress derived from a streak.
type Progress struct {
	Percentage    float64 `json:"percentage"`
	DaysRemaining int     `json:"daysRemaining"`
	GoalReached   bool    `json:"goalReached"`
}

// ProgressOf computes progress of streak toward goal. A non-positive goal
// yields zero progress.
func ProgressOf(streak, goal int) Progress {
	if goal <= 0 {
		return Progress{}
	}
	if streak < 0 {
		streak = 0
	}
	pct := float64(streak) / float64(goal) * 100
	if pct > 100 {
		pct = 100
	}
	remaining := goal - streak
	if remaining < 0 {
		remaining = 0
	}
	return Progress{
		Percentage:    pct,
		DaysRemaining: remaining,
		GoalReached:   pct >= 100,
	}
}

package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressOf(t *testing.T) {
	cases := []struct {
		name      string
		streak    int
		goal      int
		pct       float64
		remaining int
		reached   bool
	}{
		{"empty", 0, 90, 0, 90, false},
		{"one day", 1, 90, 100.0 / 90, 89, false},
		{"half", 15, 30, 50, 15, false},
		{"exact", 30, 30, 100, 0, true},
		{"beyond goal is capped", 45, 30, 100, 0, true},
		{"invalid goal", 5, 0, 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := ProgressOf(tc.streak, tc.goal)
			assert.InDelta(t, tc.pct, p.Percentage, 1e-9)
			assert.Equal(t, tc.remaining, p.DaysRemaining)
			assert.Equal(t, tc.reached, p.GoalReached)
		})
	}
}

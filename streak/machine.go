package streak

import (
	"errors"
	"time"

	"github.com/cppla/focusstreak/models"
)

// DefaultGoal is the goal applied when none has been chosen.
const DefaultGoal = 90

// GoalOptions are the goal lengths offered to a user picking a goal.
var GoalOptions = []int{15, 30, 60, 90, 180, 365}

var ErrInvalidGoal = errors.New("goal must be greater than zero")

// State is the check-in state of a record on a given day.
type State int

const (
	NoRecord State = iota
	Idle
	CheckedInToday
)

func (s State) String() string {
	switch s {
	case NoRecord:
		return "no_record"
	case Idle:
		return "idle"
	case CheckedInToday:
		return "checked_in_today"
	default:
		return "unknown"
	}
}

// Status is the read-only view of a record at a point in time.
type Status struct {
	State             State
	HasCheckedInToday bool
	// DisplayStreak is 0 when the streak has lapsed; the stored value is
	// only rewritten by the next check-in or reset.
	DisplayStreak int
	Goal          int
	NeedsGoal     bool
	Progress      Progress
}

// Machine computes streak transitions. It never reads the wall clock;
// callers pass now explicitly.
type Machine struct {
	Calendar    Calendar
	DefaultGoal int
}

// NewMachine returns a machine for the given calendar.
func NewMachine(cal Calendar) *Machine {
	return &Machine{Calendar: cal, DefaultGoal: DefaultGoal}
}

func (m *Machine) defaultGoal() int {
	if m.DefaultGoal > 0 {
		return m.DefaultGoal
	}
	return DefaultGoal
}

// NewRecord returns the initial record for a user, mirroring the defaults the
// store applies on first create. goal <= 0 selects the default goal.
func (m *Machine) NewRecord(userID string, goal int, now time.Time) models.StreakRecord {
	if goal <= 0 {
		goal = m.defaultGoal()
	}
	now = now.UTC()
	return models.StreakRecord{
		UserID:          userID,
		CurrentStreak:   0,
		LastCheckInDate: now,
		Goal:            goal,
		UpdatedAt:       now,
	}
}

// checkedInOn reports whether rec holds a counted check-in on day d.
// A zero streak counts nothing: its lastCheckInDate is a reset or
// creation stamp.
func (m *Machine) checkedInOn(rec models.StreakRecord, d Day) bool {
	return rec.CurrentStreak > 0 && m.Calendar.Day(rec.LastCheckInDate) == d
}

// checkedInToday reports whether rec already holds the check-in for the day
// of now. A counted check-in stamped on a later day, written by a replica
// whose clock runs ahead, also occupies today.
func (m *Machine) checkedInToday(rec models.StreakRecord, now time.Time) bool {
	if rec.CurrentStreak <= 0 {
		return false
	}
	return m.Calendar.SameDay(rec.LastCheckInDate, now) ||
		m.Calendar.Today(now).Before(m.Calendar.Day(rec.LastCheckInDate))
}

// CheckIn applies a check-in at now. The second return is false when the
// record was already checked in today and nothing changed.
func (m *Machine) CheckIn(rec models.StreakRecord, now time.Time) (models.StreakRecord, bool) {
	if m.checkedInToday(rec, now) {
		return rec, false
	}
	today := m.Calendar.Today(now)

	next := rec.Clone()
	if m.checkedInOn(rec, today.AddDays(-1)) {
		next.CurrentStreak = rec.CurrentStreak + 1
	} else {
		next.CurrentStreak = 1
	}
	if next.Goal <= 0 {
		next.Goal = m.defaultGoal()
	}
	now = now.UTC()
	next.LastCheckInDate = now
	next.UpdatedAt = now
	return next, true
}

// Reset zeroes the streak and stamps the reset. It applies regardless of
// prior state; goal and user id are kept.
func (m *Machine) Reset(rec models.StreakRecord, now time.Time) models.StreakRecord {
	next := rec.Clone()
	now = now.UTC()
	reset := now
	next.CurrentStreak = 0
	next.LastCheckInDate = now
	next.LastResetDate = &reset
	next.UpdatedAt = now
	if next.Goal <= 0 {
		next.Goal = m.defaultGoal()
	}
	return next
}

// SetGoal changes the goal without touching the streak.
func (m *Machine) SetGoal(rec models.StreakRecord, goal int, now time.Time) (models.StreakRecord, error) {
	if goal <= 0 {
		return rec, ErrInvalidGoal
	}
	next := rec.Clone()
	next.Goal = goal
	next.UpdatedAt = now.UTC()
	return next, nil
}

// Derive computes the display state of rec at now. A nil record is
// NoRecord and requires goal selection.
func (m *Machine) Derive(rec *models.StreakRecord, now time.Time) Status {
	if rec == nil {
		goal := m.defaultGoal()
		return Status{
			State:     NoRecord,
			Goal:      goal,
			NeedsGoal: true,
			Progress:  ProgressOf(0, goal),
		}
	}

	goal := rec.Goal
	if goal <= 0 {
		goal = m.defaultGoal()
	}
	today := m.Calendar.Today(now)
	st := Status{State: Idle, Goal: goal}
	switch {
	case m.checkedInToday(*rec, now):
		st.State = CheckedInToday
		st.HasCheckedInToday = true
		st.DisplayStreak = rec.CurrentStreak
	case m.checkedInOn(*rec, today.AddDays(-1)):
		st.DisplayStreak = rec.CurrentStreak
	default:
		st.DisplayStreak = 0
	}
	st.Progress = ProgressOf(st.DisplayStreak, goal)
	return st
}

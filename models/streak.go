package models

import "time"

// StreakRecord is the persisted streak state of a single user.
// A zero UpdatedAt means the replica carries no reconciliation clock.
type StreakRecord struct {
	UserID          string     `gorm:"primaryKey;size:128" json:"userId,omitempty"`
	CurrentStreak   int        `gorm:"not null;default:0" json:"currentStreak"`
	LastCheckInDate time.Time  `gorm:"not null" json:"lastCheckInDate"`
	Goal            int        `gorm:"not null;default:90" json:"goal"`
	LastResetDate   *time.Time `json:"lastResetDate"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// TableName pins the table name used by the SQL store.
func (StreakRecord) TableName() string {
	return "streak_records"
}

// Clone returns a deep copy of the record.
func (r StreakRecord) Clone() StreakRecord {
	out := r
	if r.LastResetDate != nil {
		t := *r.LastResetDate
		out.LastResetDate = &t
	}
	return out
}

// StreakPatch is an upsert request. Nil fields are left unchanged on update
// and defaulted on create. Any updatedAt sent by a client is ignored: the
// store stamps its own clock.
type StreakPatch struct {
	UserID          string     `json:"userId"`
	CurrentStreak   *int       `json:"currentStreak,omitempty"`
	LastCheckInDate *time.Time `json:"lastCheckInDate,omitempty"`
	Goal            *int       `json:"goal,omitempty"`
	LastResetDate   *time.Time `json:"lastResetDate,omitempty"`
}

// PatchFromRecord builds a patch carrying every field of r.
func PatchFromRecord(r StreakRecord) StreakPatch {
	streak := r.CurrentStreak
	goal := r.Goal
	last := r.LastCheckInDate
	p := StreakPatch{
		UserID:          r.UserID,
		CurrentStreak:   &streak,
		LastCheckInDate: &last,
		Goal:            &goal,
	}
	if r.LastResetDate != nil {
		reset := *r.LastResetDate
		p.LastResetDate = &reset
	}
	return p
}

// Apply merges the provided fields of p into r. UpdatedAt is left to the caller.
func (p StreakPatch) Apply(r *StreakRecord) {
	if p.CurrentStreak != nil {
		r.CurrentStreak = *p.CurrentStreak
	}
	if p.LastCheckInDate != nil {
		r.LastCheckInDate = p.LastCheckInDate.UTC()
	}
	if p.Goal != nil {
		r.Goal = *p.Goal
	}
	if p.LastResetDate != nil {
		t := p.LastResetDate.UTC()
		r.LastResetDate = &t
	}
}

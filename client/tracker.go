// Package client is the shell side of the streak tracker: a local cache on
// the device, the remote Record Store reached over HTTP, and a Tracker that
// reconciles the two and applies check-in, reset and goal transitions.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/focusstreak/models"
	"github.com/cppla/focusstreak/streak"
)

// DeviceState is the per-device state kept next to the cached record: the
// activity log and whether a reset still awaits a goal choice.
type DeviceState interface {
	History() []models.HistoryEntry
	SetHistory(entries []models.HistoryEntry) error
	GoalPending() bool
	SetGoalPending(pending bool) error
}

var (
	_ streak.Repository = (*LocalCache)(nil)
	_ streak.Repository = (*RemoteRepo)(nil)
	_ DeviceState       = (*LocalCache)(nil)
)

// Options configure a Tracker. Remote may be nil for an offline shell.
// Device defaults to Local when Local also keeps device state.
type Options struct {
	UserID   string
	Local    streak.Repository
	Remote   streak.Repository
	Device   DeviceState
	Calendar streak.Calendar
	Clock    streak.Clock
	Logger   *zap.Logger
}

// Tracker owns one user's record for the lifetime of a shell session.
type Tracker struct {
	userID  string
	local   streak.Repository
	remote  streak.Repository
	device  DeviceState
	machine *streak.Machine
	clock   streak.Clock
	logger  *zap.Logger

	current *models.StreakRecord
	source  streak.Source
}

func NewTracker(o Options) *Tracker {
	if o.Clock == nil {
		o.Clock = streak.SystemClock{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Device == nil {
		if d, ok := o.Local.(DeviceState); ok {
			o.Device = d
		}
	}
	return &Tracker{
		userID:  o.UserID,
		local:   o.Local,
		remote:  o.Remote,
		device:  o.Device,
		machine: streak.NewMachine(o.Calendar),
		clock:   o.Clock,
		logger:  o.Logger.With(zap.String("userId", o.UserID)),
	}
}

// ResolveUserID picks the identity for this device: an explicit id wins,
// then the id stored in the cache, then a freshly generated one which is
// stored for next time.
func ResolveUserID(explicit string, cache *LocalCache) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if id, ok := cache.UserID(); ok {
		return id, nil
	}
	id := uuid.NewString()
	if err := cache.SetUserID(id); err != nil {
		return "", fmt.Errorf("store generated user id: %w", err)
	}
	return id, nil
}

func (t *Tracker) UserID() string { return t.userID }

// Source reports which replica Open adopted.
func (t *Tracker) Source() streak.Source { return t.source }

// Record returns a copy of the current record, or nil in NoRecord.
func (t *Tracker) Record() *models.StreakRecord {
	if t.current == nil {
		return nil
	}
	rec := t.current.Clone()
	return &rec
}

// Open loads both replicas and adopts the newer one. Remote failures of any
// kind count as "no remote record"; the chosen record is written through to
// the local cache but never pushed from here. A failed write-through is
// logged: the reconciled record stays usable for this session.
func (t *Tracker) Open(ctx context.Context) error {
	var remote *models.StreakRecord
	if t.remote != nil {
		rec, err := t.remote.Get(ctx, t.userID)
		switch {
		case err == nil:
			remote = rec
		case errors.Is(err, streak.ErrNotFound):
		default:
			t.logger.Warn("fetch remote streak failed, using local state", zap.Error(err))
		}
	}

	local, err := t.local.Get(ctx, t.userID)
	if err != nil {
		if !errors.Is(err, streak.ErrNotFound) {
			t.logger.Warn("read local streak failed", zap.Error(err))
		}
		local = nil
	}

	chosen, src := streak.Reconcile(local, remote)
	t.source = src
	if chosen == nil {
		t.current = nil
		return nil
	}

	rec := chosen.Clone()
	rec.UserID = t.userID
	t.current = &rec
	if src == streak.SourceRemote {
		if _, err := t.local.Put(ctx, rec); err != nil {
			t.logger.Warn("write-through to local cache failed", zap.Error(err))
		}
	}
	t.observe()
	return nil
}

// Status derives the display state at the current instant.
func (t *Tracker) Status() streak.Status {
	st := t.machine.Derive(t.current, t.clock.Now())
	if t.device != nil && t.device.GoalPending() {
		st.NeedsGoal = true
	}
	return st
}

func (t *Tracker) base(now time.Time, goal int) models.StreakRecord {
	if t.current != nil {
		return t.current.Clone()
	}
	return t.machine.NewRecord(t.userID, goal, now)
}

// CheckIn records today's check-in. It reports false, with no write, when
// today is already checked in.
func (t *Tracker) CheckIn(ctx context.Context) (bool, error) {
	now := t.clock.Now()
	next, changed := t.machine.CheckIn(t.base(now, 0), now)
	if !changed {
		return false, nil
	}
	return true, t.commit(ctx, next)
}

// Reset zeroes the streak. The goal prompt stays up, across runs, until
// SetGoal is called.
func (t *Tracker) Reset(ctx context.Context) error {
	now := t.clock.Now()
	next := t.machine.Reset(t.base(now, 0), now)
	if err := t.commit(ctx, next); err != nil {
		return err
	}
	return t.setGoalPending(true)
}

// SetGoal changes the goal, creating the record if there is none yet.
func (t *Tracker) SetGoal(ctx context.Context, goal int) error {
	now := t.clock.Now()
	next, err := t.machine.SetGoal(t.base(now, goal), goal, now)
	if err != nil {
		return err
	}
	if err := t.commit(ctx, next); err != nil {
		return err
	}
	return t.setGoalPending(false)
}

// History returns the stored activity log, newest first.
func (t *Tracker) History() []models.HistoryEntry {
	if t.device == nil {
		return nil
	}
	return t.device.History()
}

func (t *Tracker) setGoalPending(pending bool) error {
	if t.device == nil {
		return nil
	}
	return t.device.SetGoalPending(pending)
}

// commit writes rec locally, then pushes it. A failed push is logged and
// dropped; a successful one hands back the server stamp, which replaces the
// local one so both replicas carry the same clock.
func (t *Tracker) commit(ctx context.Context, rec models.StreakRecord) error {
	rec.UserID = t.userID
	if _, err := t.local.Put(ctx, rec); err != nil {
		return err
	}
	t.current = &rec

	if t.remote != nil {
		stored, err := t.remote.Put(ctx, rec)
		switch {
		case err != nil:
			t.logger.Warn("push streak failed, kept locally", zap.Error(err))
		case !stored.UpdatedAt.Equal(rec.UpdatedAt):
			rec.UpdatedAt = stored.UpdatedAt
			t.current = &rec
			if _, err := t.local.Put(ctx, rec); err != nil {
				return err
			}
		}
	}
	t.observe()
	return nil
}

// observe refreshes today's entry in the activity log.
func (t *Tracker) observe() {
	if t.current == nil || t.device == nil {
		return
	}
	now := t.clock.Now()
	st := t.machine.Derive(t.current, now)
	entries := ObserveHistory(t.device.History(), st.DisplayStreak, *t.current, t.machine.Calendar, now)
	if err := t.device.SetHistory(entries); err != nil {
		t.logger.Warn("write history failed", zap.Error(err))
	}
}

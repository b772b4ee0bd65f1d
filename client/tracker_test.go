package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/focusstreak/config"
	"github.com/cppla/focusstreak/models"
	"github.com/cppla/focusstreak/routes"
	"github.com/cppla/focusstreak/store"
	"github.com/cppla/focusstreak/streak"
)

type testEnv struct {
	server      *httptest.Server
	store       *store.MemoryStore
	serverClock *streak.FixedClock
}

func newTestEnv(t *testing.T, serverNow time.Time) *testEnv {
	t.Helper()
	cfg := config.AppConfig{
		GinMode:            "test",
		GinPath:            filepath.Join(t.TempDir(), "gin.log"),
		RateLimitPerMinute: 6000,
		AllowedOrigins:     []string{"*"},
		DefaultGoal:        90,
	}
	s := store.NewMemoryStore(90)
	clock := streak.NewFixedClock(serverNow)
	srv := httptest.NewServer(routes.SetupRouter(cfg, s, clock))
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, store: s, serverClock: clock}
}

func newTestTracker(t *testing.T, userID string, remote streak.Repository, clock streak.Clock) (*Tracker, *LocalCache) {
	t.Helper()
	cache := NewLocalCache(filepath.Join(t.TempDir(), "cache.json"), nil)
	tr := NewTracker(Options{
		UserID:   userID,
		Local:    cache,
		Remote:   remote,
		Calendar: streak.NewCalendar(time.UTC),
		Clock:    clock,
	})
	return tr, cache
}

func putLocal(t *testing.T, cache *LocalCache, rec models.StreakRecord) {
	t.Helper()
	_, err := cache.Put(context.Background(), rec)
	require.NoError(t, err)
}

func TestTracker_CheckInSyncsAcrossDevices(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(t, day1.Add(2*time.Second))
	clock := streak.NewFixedClock(day1)

	phone, phoneCache := newTestTracker(t, "u1", NewRemoteRepo(env.server.URL), clock)
	require.NoError(t, phone.Open(ctx))
	assert.Equal(t, streak.SourceNone, phone.Source())
	st := phone.Status()
	assert.Equal(t, streak.NoRecord, st.State)
	assert.True(t, st.NeedsGoal)

	require.NoError(t, phone.SetGoal(ctx, 30))
	changed, err := phone.CheckIn(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	st = phone.Status()
	assert.Equal(t, streak.CheckedInToday, st.State)
	assert.Equal(t, 1, st.DisplayStreak)
	assert.False(t, st.NeedsGoal)

	stored, err := env.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStreak)
	assert.Equal(t, 30, stored.Goal)

	cached, err := phoneCache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, cached.UpdatedAt.Equal(stored.UpdatedAt), "local adopts the server stamp")

	changed, err = phone.CheckIn(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "second check-in on the same day is a no-op")

	laptop, _ := newTestTracker(t, "u1", NewRemoteRepo(env.server.URL), clock)
	require.NoError(t, laptop.Open(ctx))
	assert.Equal(t, streak.SourceRemote, laptop.Source())
	assert.Equal(t, streak.CheckedInToday, laptop.Status().State)

	clock.Set(day1.Add(24 * time.Hour))
	env.serverClock.Set(day1.Add(24*time.Hour + time.Second))
	changed, err = laptop.CheckIn(ctx)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, 2, laptop.Status().DisplayStreak)

	require.NoError(t, phone.Open(ctx))
	assert.Equal(t, streak.SourceRemote, phone.Source())
	assert.Equal(t, 2, phone.Status().DisplayStreak)
	assert.Equal(t, 30, phone.Status().Goal)
}

func TestTracker_OfflineFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	clock := streak.NewFixedClock(now)

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	tr, cache := newTestTracker(t, "u1", NewRemoteRepo(deadURL), clock)
	putLocal(t, cache, models.StreakRecord{
		CurrentStreak:   4,
		LastCheckInDate: now.Add(-24 * time.Hour),
		Goal:            60,
		UpdatedAt:       now.Add(-24 * time.Hour),
	})

	require.NoError(t, tr.Open(ctx))
	assert.Equal(t, streak.SourceLocal, tr.Source())
	assert.Equal(t, 4, tr.Status().DisplayStreak)

	changed, err := tr.CheckIn(ctx)
	require.NoError(t, err)
	require.True(t, changed)

	got, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentStreak)
	assert.True(t, got.UpdatedAt.Equal(now), "failed push keeps the client stamp")
}

func TestTracker_NewerLocalWinsWithoutPush(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now.Add(-48*time.Hour))

	streakVal := 7
	_, err := env.store.Upsert(ctx, models.StreakPatch{UserID: "u1", CurrentStreak: &streakVal}, now.Add(-48*time.Hour))
	require.NoError(t, err)

	tr, cache := newTestTracker(t, "u1", NewRemoteRepo(env.server.URL), streak.NewFixedClock(now))
	putLocal(t, cache, models.StreakRecord{
		CurrentStreak:   2,
		LastCheckInDate: now.Add(-24 * time.Hour),
		Goal:            15,
		UpdatedAt:       now.Add(-time.Hour),
	})

	require.NoError(t, tr.Open(ctx))
	assert.Equal(t, streak.SourceLocal, tr.Source())
	assert.Equal(t, 2, tr.Record().CurrentStreak)

	stored, err := env.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, stored.CurrentStreak, "open never writes the remote")
}

func TestTracker_ResetRequiresGoal(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 21, 0, 0, 0, time.UTC)
	clock := streak.NewFixedClock(now)
	tr, _ := newTestTracker(t, "u1", nil, clock)
	require.NoError(t, tr.Open(ctx))

	_, err := tr.CheckIn(ctx)
	require.NoError(t, err)
	require.NoError(t, tr.Reset(ctx))

	st := tr.Status()
	assert.Equal(t, 0, st.DisplayStreak)
	assert.True(t, st.NeedsGoal)
	assert.Equal(t, streak.Idle, st.State)
	require.NotNil(t, tr.Record().LastResetDate)

	assert.ErrorIs(t, tr.SetGoal(ctx, 0), streak.ErrInvalidGoal)
	require.NoError(t, tr.SetGoal(ctx, 180))
	assert.False(t, tr.Status().NeedsGoal)

	changed, err := tr.CheckIn(ctx)
	require.NoError(t, err)
	assert.True(t, changed, "check-in after a reset on the same day counts")
	assert.Equal(t, 1, tr.Status().DisplayStreak)

	hist := tr.History()
	require.Len(t, hist, 1)
	assert.Equal(t, "2024-06-01", hist[0].Date)
	assert.Equal(t, 1, hist[0].Streak)
}

func TestRemoteRepo_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, time.Now())
	repo := NewRemoteRepo(env.server.URL + "/")

	_, err := repo.Get(ctx, "nobody")
	assert.ErrorIs(t, err, streak.ErrNotFound)

	_, err = repo.Put(ctx, models.StreakRecord{CurrentStreak: 1, Goal: 30})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "Missing userId", se.Message)

	cfg, err := repo.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.DefaultGoal)
	assert.Equal(t, streak.GoalOptions, cfg.GoalOptions)
}

func TestRemoteRepo_PutReturnsServerStamp(t *testing.T) {
	ctx := context.Background()
	serverNow := time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, serverNow)
	repo := NewRemoteRepo(env.server.URL)

	clientNow := serverNow.Add(-3 * time.Minute)
	rec := models.StreakRecord{UserID: "u1", CurrentStreak: 2, LastCheckInDate: clientNow, Goal: 30, UpdatedAt: clientNow}
	stored, err := repo.Put(ctx, rec)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.Equal(serverNow))
	assert.Equal(t, 2, stored.CurrentStreak)
	assert.True(t, rec.UpdatedAt.Equal(clientNow), "input is not mutated")
}

// memoryRepo is a replica that stamps its own clock on every write.
type memoryRepo struct {
	mu    sync.Mutex
	recs  map[string]models.StreakRecord
	stamp time.Time
	puts  int
}

func (r *memoryRepo) Get(_ context.Context, userID string) (*models.StreakRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[userID]
	if !ok {
		return nil, streak.ErrNotFound
	}
	return &rec, nil
}

func (r *memoryRepo) Put(_ context.Context, rec models.StreakRecord) (models.StreakRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.UpdatedAt = r.stamp
	r.recs[rec.UserID] = rec
	r.puts++
	return rec, nil
}

func TestTracker_UsesAnyRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 5, 9, 0, 0, 0, time.UTC)
	remote := &memoryRepo{recs: map[string]models.StreakRecord{}, stamp: now.Add(time.Minute)}
	local := &memoryRepo{recs: map[string]models.StreakRecord{}, stamp: now}

	tr := NewTracker(Options{
		UserID:   "u1",
		Local:    local,
		Remote:   remote,
		Calendar: streak.NewCalendar(time.UTC),
		Clock:    streak.NewFixedClock(now),
	})
	require.NoError(t, tr.Open(ctx))
	assert.Zero(t, remote.puts, "open never writes the remote")

	changed, err := tr.CheckIn(ctx)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, 1, remote.puts)
	assert.True(t, tr.Record().UpdatedAt.Equal(now.Add(time.Minute)), "remote stamp adopted")
	assert.Nil(t, tr.History(), "no device state without a cache")
}

func TestTracker_OpenSurvivesUnwritableCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	streakVal := 5
	_, err := env.store.Upsert(ctx, models.StreakPatch{UserID: "u1", CurrentStreak: &streakVal, LastCheckInDate: &now}, now)
	require.NoError(t, err)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	tr := NewTracker(Options{
		UserID:   "u1",
		Local:    NewLocalCache(filepath.Join(blocker, "cache.json"), nil),
		Remote:   NewRemoteRepo(env.server.URL),
		Calendar: streak.NewCalendar(time.UTC),
		Clock:    streak.NewFixedClock(now.Add(time.Hour)),
	})

	require.NoError(t, tr.Open(ctx))
	assert.Equal(t, streak.SourceRemote, tr.Source())
	st := tr.Status()
	assert.Equal(t, streak.CheckedInToday, st.State)
	assert.Equal(t, 5, st.DisplayStreak)
}

func TestTracker_GoalPromptPersistsAfterReset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now.Add(time.Second))
	clock := streak.NewFixedClock(now)
	path := filepath.Join(t.TempDir(), "cache.json")

	session := func() *Tracker {
		tr := NewTracker(Options{
			UserID:   "u1",
			Local:    NewLocalCache(path, nil),
			Remote:   NewRemoteRepo(env.server.URL),
			Calendar: streak.NewCalendar(time.UTC),
			Clock:    clock,
		})
		require.NoError(t, tr.Open(ctx))
		return tr
	}

	tr := session()
	_, err := tr.CheckIn(ctx)
	require.NoError(t, err)
	require.NoError(t, tr.Reset(ctx))

	clock.Advance(time.Hour)
	assert.True(t, session().Status().NeedsGoal, "a later run still asks for a goal")

	require.NoError(t, session().SetGoal(ctx, 60))
	st := session().Status()
	assert.False(t, st.NeedsGoal)
	assert.Equal(t, 60, st.Goal)
}

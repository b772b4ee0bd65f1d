package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/cppla/focusstreak/models"
	"github.com/cppla/focusstreak/streak"
)

// Keys of the local key-value document.
const (
	KeyStreakData    = "streakData"
	KeyStreakHistory = "streakHistory"
	KeyUserID        = "ds_userId"
	KeyGoalPending   = "goalPending"
)

// LocalCache is the client-side replica: a flat JSON object of string keys,
// one file per device. The record under streakData is stored without its
// userId; the cache belongs to whoever owns the device.
type LocalCache struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewLocalCache opens the cache at path. The file is created on first write.
func NewLocalCache(path string, logger *zap.Logger) *LocalCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalCache{path: path, logger: logger}
}

// DefaultCachePath is the per-user cache location.
func DefaultCachePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "focusstreak", "cache.json")
}

func (c *LocalCache) Path() string { return c.path }

// load reads the whole document. A missing file is empty; an unreadable
// one is logged and treated as empty so the shell keeps working.
func (c *LocalCache) load() map[string]json.RawMessage {
	kv := map[string]json.RawMessage{}
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("read local cache failed", zap.String("path", c.path), zap.Error(err))
		}
		return kv
	}
	if len(raw) == 0 {
		return kv
	}
	if err := json.Unmarshal(raw, &kv); err != nil {
		c.logger.Warn("local cache is corrupt, ignoring it", zap.String("path", c.path), zap.Error(err))
		return map[string]json.RawMessage{}
	}
	return kv
}

func (c *LocalCache) save(kv map[string]json.RawMessage) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	b, err := json.MarshalIndent(kv, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".cache-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

func (c *LocalCache) getKey(key string, v any) bool {
	c.mu.Lock()
	raw, ok := c.load()[key]
	c.mu.Unlock()
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.logger.Warn("local cache entry is corrupt, ignoring it", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *LocalCache) setKey(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kv := c.load()
	kv[key] = b
	if err := c.save(kv); err != nil {
		return fmt.Errorf("write local cache %s: %w", c.path, err)
	}
	return nil
}

// Get returns the cached record stamped with userID, or streak.ErrNotFound
// when nothing usable is cached.
func (c *LocalCache) Get(_ context.Context, userID string) (*models.StreakRecord, error) {
	var rec models.StreakRecord
	if !c.getKey(KeyStreakData, &rec) {
		return nil, streak.ErrNotFound
	}
	rec.UserID = userID
	return &rec, nil
}

// Put replaces the cached record.
func (c *LocalCache) Put(_ context.Context, rec models.StreakRecord) (models.StreakRecord, error) {
	stored := rec.Clone()
	stored.UserID = ""
	if err := c.setKey(KeyStreakData, stored); err != nil {
		return rec, err
	}
	return rec, nil
}

// UserID returns the identifier generated for this device, if any.
func (c *LocalCache) UserID() (string, bool) {
	var id string
	if !c.getKey(KeyUserID, &id) || id == "" {
		return "", false
	}
	return id, true
}

func (c *LocalCache) SetUserID(id string) error {
	return c.setKey(KeyUserID, id)
}

// History returns the activity log, newest first.
func (c *LocalCache) History() []models.HistoryEntry {
	var entries []models.HistoryEntry
	if !c.getKey(KeyStreakHistory, &entries) {
		return nil
	}
	return entries
}

func (c *LocalCache) SetHistory(entries []models.HistoryEntry) error {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return c.setKey(KeyStreakHistory, entries)
}

// GoalPending reports whether a reset on this device still awaits a new goal.
func (c *LocalCache) GoalPending() bool {
	var pending bool
	return c.getKey(KeyGoalPending, &pending) && pending
}

func (c *LocalCache) SetGoalPending(pending bool) error {
	return c.setKey(KeyGoalPending, pending)
}

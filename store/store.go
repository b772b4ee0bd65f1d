// Package store persists one streak record per user. Every backend gives
// upsert semantics: a missing record is created with defaults, an existing
// one is shallow-merged with the provided fields, and updatedAt is always
// stamped with the server clock at write time. A single Upsert is atomic
// per key; there is no compare-and-swap, so the last write wins.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cppla/focusstreak/config"
	"github.com/cppla/focusstreak/models"
	"github.com/cppla/focusstreak/streak"
	"github.com/cppla/focusstreak/utils"
)

var (
	// ErrNotFound is shared with the client side so both replicas report
	// absence the same way.
	ErrNotFound      = streak.ErrNotFound
	ErrMissingUserID = errors.New("missing userId")
	ErrInvalidField  = errors.New("invalid field")
)

// Store is the Record Store contract.
type Store interface {
	Get(ctx context.Context, userID string) (*models.StreakRecord, error)
	Upsert(ctx context.Context, patch models.StreakPatch, now time.Time) (*models.StreakRecord, error)
	Close() error
}

// Validate rejects patches no backend should store.
func Validate(p models.StreakPatch) error {
	if p.UserID == "" {
		return ErrMissingUserID
	}
	if p.CurrentStreak != nil && *p.CurrentStreak < 0 {
		return fmt.Errorf("%w: currentStreak must be >= 0", ErrInvalidField)
	}
	if p.Goal != nil && *p.Goal <= 0 {
		return fmt.Errorf("%w: goal must be > 0", ErrInvalidField)
	}
	return nil
}

// merge applies p over existing, or over a default record when existing is nil.
func merge(existing *models.StreakRecord, p models.StreakPatch, now time.Time, defaultGoal int) models.StreakRecord {
	now = now.UTC()
	var rec models.StreakRecord
	if existing == nil {
		rec = models.StreakRecord{
			UserID:          p.UserID,
			CurrentStreak:   0,
			LastCheckInDate: now,
			Goal:            defaultGoal,
		}
	} else {
		rec = existing.Clone()
	}
	p.Apply(&rec)
	rec.UpdatedAt = now
	return rec
}

// Open builds the backend named by cfg.StoreBackend.
func Open(cfg config.AppConfig) (Store, error) {
	goal := cfg.DefaultGoal
	if goal <= 0 {
		goal = streak.DefaultGoal
	}
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return NewMemoryStore(goal), nil
	case config.BackendFile, "":
		return NewFileStore(cfg.DataFile, goal)
	case config.BackendRedis:
		rdb, err := utils.GetRedis()
		if err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisStore(rdb, goal), nil
	case config.BackendSQL:
		return OpenSQLStore(cfg.DatabaseURI, cfg.LogLevel, goal)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

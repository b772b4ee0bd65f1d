package store

import (
	"context"
	"sync"
	"time"

	"github.com/cppla/focusstreak/models"
)

// MemoryStore keeps records in process memory. Data is lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[string]models.StreakRecord
	defaultGoal int
}

func NewMemoryStore(defaultGoal int) *MemoryStore {
	return &MemoryStore{
		records:     make(map[string]models.StreakRecord),
		defaultGoal: defaultGoal,
	}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*models.StreakRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec.Clone()
	return &out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, p models.StreakPatch, now time.Time) (*models.StreakRecord, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *models.StreakRecord
	if rec, ok := s.records[p.UserID]; ok {
		existing = &rec
	}
	rec := merge(existing, p, now, s.defaultGoal)
	s.records[p.UserID] = rec
	out := rec.Clone()
	return &out, nil
}

func (s *MemoryStore) Close() error { return nil }

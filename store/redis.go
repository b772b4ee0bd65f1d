package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/focusstreak/models"
)

const redisKeyPrefix = "streak:"

// Hash field names match the JSON field names of the record.
const (
	fieldUserID          = "userId"
	fieldCurrentStreak   = "currentStreak"
	fieldLastCheckInDate = "lastCheckInDate"
	fieldGoal            = "goal"
	fieldLastResetDate   = "lastResetDate"
	fieldUpdatedAt       = "updatedAt"
)

// RedisStore keeps each record in a hash at streak:<userId>.
type RedisStore struct {
	rdb         *redis.Client
	defaultGoal int
}

func NewRedisStore(rdb *redis.Client, defaultGoal int) *RedisStore {
	return &RedisStore{rdb: rdb, defaultGoal: defaultGoal}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*models.StreakRecord, error) {
	m, err := s.rdb.HGetAll(ctx, redisKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}
	return decodeHash(userID, m)
}

// Upsert runs HSETNX for every default and HSET for the provided fields in
// one MULTI/EXEC, so creation and merge are a single atomic step.
func (s *RedisStore) Upsert(ctx context.Context, p models.StreakPatch, now time.Time) (*models.StreakRecord, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	key := redisKey(p.UserID)
	stamp := formatTime(now)

	values := []interface{}{fieldUserID, p.UserID, fieldUpdatedAt, stamp}
	if p.CurrentStreak != nil {
		values = append(values, fieldCurrentStreak, *p.CurrentStreak)
	}
	if p.LastCheckInDate != nil {
		values = append(values, fieldLastCheckInDate, formatTime(*p.LastCheckInDate))
	}
	if p.Goal != nil {
		values = append(values, fieldGoal, *p.Goal)
	}
	if p.LastResetDate != nil {
		values = append(values, fieldLastResetDate, formatTime(*p.LastResetDate))
	}

	var all *redis.MapStringStringCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, fieldCurrentStreak, 0)
		pipe.HSetNX(ctx, key, fieldLastCheckInDate, stamp)
		pipe.HSetNX(ctx, key, fieldGoal, s.defaultGoal)
		pipe.HSetNX(ctx, key, fieldLastResetDate, "")
		pipe.HSet(ctx, key, values...)
		all = pipe.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis upsert %s: %w", key, err)
	}
	return decodeHash(p.UserID, all.Val())
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func decodeHash(userID string, m map[string]string) (*models.StreakRecord, error) {
	rec := &models.StreakRecord{UserID: userID}
	var err error
	if v := m[fieldCurrentStreak]; v != "" {
		if rec.CurrentStreak, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", fieldCurrentStreak, err)
		}
	}
	if v := m[fieldGoal]; v != "" {
		if rec.Goal, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", fieldGoal, err)
		}
	}
	if v := m[fieldLastCheckInDate]; v != "" {
		if rec.LastCheckInDate, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", fieldLastCheckInDate, err)
		}
	}
	if v := m[fieldLastResetDate]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", fieldLastResetDate, err)
		}
		rec.LastResetDate = &t
	}
	if v := m[fieldUpdatedAt]; v != "" {
		if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", fieldUpdatedAt, err)
		}
	}
	return rec, nil
}

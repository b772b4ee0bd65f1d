package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/cppla/focusstreak/models"
)

// SQLStore keeps records in the streak_records table.
type SQLStore struct {
	db          *gorm.DB
	lockRows    bool
	defaultGoal int
}

// dialectorFor picks the driver from the DSN: postgres:// and
// postgresql:// use Postgres, mysql:// or a go-sql-driver DSN use MySQL,
// anything else is a SQLite path.
func dialectorFor(dsn string) (gorm.Dialector, bool) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), true
	case strings.HasPrefix(dsn, "mysql://"):
		return mysql.Open(strings.TrimPrefix(dsn, "mysql://")), true
	case strings.Contains(dsn, "@tcp("):
		return mysql.Open(dsn), true
	default:
		return sqlite.Open(dsn), false
	}
}

// OpenSQLStore connects, tunes the pool and migrates the schema.
func OpenSQLStore(dsn, logLevel string, defaultGoal int) (*SQLStore, error) {
	dialector, server := dialectorFor(dsn)
	if !server {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	}

	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if !server {
		// SQLite allows one writer; a single connection serializes upserts
		// instead of surfacing SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
	}

	if err := db.AutoMigrate(&models.StreakRecord{}); err != nil {
		return nil, fmt.Errorf("auto migration failed: %w", err)
	}
	return &SQLStore{db: db, lockRows: server, defaultGoal: defaultGoal}, nil
}

func (s *SQLStore) Get(ctx context.Context, userID string) (*models.StreakRecord, error) {
	var rec models.StreakRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLStore) Upsert(ctx context.Context, p models.StreakPatch, now time.Time) (*models.StreakRecord, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	var out models.StreakRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if s.lockRows {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var existing models.StreakRecord
		err := q.Where("user_id = ?", p.UserID).First(&existing).Error
		switch {
		case err == nil:
			out = merge(&existing, p, now, s.defaultGoal)
			return tx.Save(&out).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = merge(nil, p, now, s.defaultGoal)
			return tx.Create(&out).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "warn", "info":
		return logger.Warn
	case "error", "dpanic", "panic", "fatal":
		return logger.Error
	default:
		return logger.Silent
	}
}

// ensureSQLiteDir creates the parent directory of a SQLite file path.
func ensureSQLiteDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") || dsn == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite dir %s: %w", dir, err)
	}
	return nil
}

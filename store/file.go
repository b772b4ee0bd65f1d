package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cppla/focusstreak/models"
)

// fileDocument is the on-disk layout: {"records": [...]}.
type fileDocument struct {
	Records []models.StreakRecord `json:"records"`
}

// FileStore keeps all records in a single JSON document. Writes go to a
// temporary file that is renamed over the original, so readers never see a
// partial document.
type FileStore struct {
	path        string
	mu          sync.Mutex
	defaultGoal int
}

// NewFileStore opens (creating if needed) the document at path.
func NewFileStore(path string, defaultGoal int) (*FileStore, error) {
	s := &FileStore{path: path, defaultGoal: defaultGoal}
	if err := s.ensureDataFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) ensureDataFile() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return s.writeAll(fileDocument{Records: []models.StreakRecord{}})
	} else if err != nil {
		return err
	}
	return nil
}

func (s *FileStore) readAll() (fileDocument, error) {
	var doc fileDocument
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileStore) writeAll(doc fileDocument) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".streak-*.json")
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
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Get(_ context.Context, userID string) (*models.StreakRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for i := range doc.Records {
		if doc.Records[i].UserID == userID {
			rec := doc.Records[i].Clone()
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) Upsert(_ context.Context, p models.StreakPatch, now time.Time) (*models.StreakRecord, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readAll()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range doc.Records {
		if doc.Records[i].UserID == p.UserID {
			idx = i
			break
		}
	}

	var rec models.StreakRecord
	if idx == -1 {
		rec = merge(nil, p, now, s.defaultGoal)
		doc.Records = append(doc.Records, rec)
	} else {
		rec = merge(&doc.Records[idx], p, now, s.defaultGoal)
		doc.Records[idx] = rec
	}
	if err := s.writeAll(doc); err != nil {
		return nil, fmt.Errorf("write %s: %w", s.path, err)
	}
	out := rec.Clone()
	return &out, nil
}

func (s *FileStore) Close() error { return nil }

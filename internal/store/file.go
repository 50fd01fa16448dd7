package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/kitchen-wars/internal/models"
)

const sessionFile = "session.yaml"

// FileStore keeps each session, history included, in <dir>/<id>/session.yaml.
// Every write replaces the whole file through a rename, so a crash leaves either the
// old or the new state on disk.
type FileStore struct {
	dir string
	mu  sync.Mutex
	// rename is swapped in tests to simulate a failed replace.
	rename func(oldpath, newpath string) error
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save directory: %w", err)
	}
	return &FileStore{dir: dir, rename: os.Rename}, nil
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id, sessionFile)
}

// localID reports whether id names a single directory inside the save dir.
func localID(id string) bool {
	return id != "" && filepath.Base(id) == id && filepath.IsLocal(id)
}

func (f *FileStore) load(id string) (models.Session, error) {
	if !localID(id) {
		return models.Session{}, fmt.Errorf("%w: session %s", models.ErrNotFound, id)
	}
	data, err := os.ReadFile(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return models.Session{}, fmt.Errorf("%w: session %s", models.ErrNotFound, id)
	}
	if err != nil {
		return models.Session{}, err
	}
	var s models.Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return models.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.Tags == nil {
		s.Tags = []models.PlayerTag{}
	}
	return s, nil
}

func (f *FileStore) save(s models.Session) error {
	dir := filepath.Join(f.dir, s.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, sessionFile+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := f.rename(tmp.Name(), f.path(s.ID)); err != nil {
		return fmt.Errorf("replace session %s: %w", s.ID, err)
	}
	return nil
}

func (f *FileStore) CreateSession(_ context.Context, s models.Session) error {
	if !localID(s.ID) {
		return fmt.Errorf("%w: invalid session id %q", models.ErrValidation, s.ID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(f.path(s.ID)); err == nil {
		return fmt.Errorf("%w: session %s already exists", models.ErrConflict, s.ID)
	}
	s.History = nil
	return f.save(s)
}

func (f *FileStore) GetSession(_ context.Context, id string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(id)
}

// guarded loads id and checks its revision under the lock.
func (f *FileStore) guarded(id string, expectedRevision int) (models.Session, error) {
	cur, err := f.load(id)
	if err != nil {
		return models.Session{}, err
	}
	if cur.Revision != expectedRevision {
		return models.Session{}, fmt.Errorf("%w: session %s was modified concurrently", models.ErrConflict, id)
	}
	return cur, nil
}

func (f *FileStore) SetPendingEvent(_ context.Context, id string, expectedRevision int, ev models.EventCard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, err := f.guarded(id, expectedRevision)
	if err != nil {
		return err
	}
	if cur.PendingEvent != nil {
		return fmt.Errorf("%w: session %s already has a pending event", models.ErrConflict, id)
	}
	cur.PendingEvent = &ev
	return f.save(cur)
}

func (f *FileStore) CommitChoice(_ context.Context, expectedRevision int, s models.Session, rec models.ChoiceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, err := f.guarded(s.ID, expectedRevision)
	if err != nil {
		return err
	}
	for _, r := range cur.History {
		if r.Day == rec.Day {
			return fmt.Errorf("%w: day %d of session %s already recorded", models.ErrConflict, rec.Day, s.ID)
		}
	}
	next := s.Clone()
	next.History = append(cur.History, rec)
	return f.save(next)
}

func (f *FileStore) ResetSession(_ context.Context, expectedRevision int, s models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.guarded(s.ID, expectedRevision); err != nil {
		return err
	}
	s.History = nil
	return f.save(s)
}

func (f *FileStore) ListSessions(_ context.Context, playerID string, limit int) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	out := []models.Session{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		s, err := f.load(entry.Name())
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if s.PlayerID != playerID {
			continue
		}
		s.History = nil
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

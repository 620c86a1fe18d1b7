package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"sigil/internal/admin/models"
	"sigil/internal/sentinel"
)

// FileStore persists the roster as a single JSON array, rewritten whole on
// every mutation, mirroring the admins.json layout of the original deployment.
type FileStore struct {
	path string

	mu     sync.RWMutex
	admins map[string]models.Admin
	order  []string
}

// NewFileStore loads (or initializes) the roster document at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		admins: make(map[string]models.Admin),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read admins file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var admins []models.Admin
	if err := json.Unmarshal(data, &admins); err != nil {
		return fmt.Errorf("parse admins file: %w", err)
	}
	for _, admin := range admins {
		s.admins[admin.AdminID] = admin
		s.order = append(s.order, admin.AdminID)
	}
	return nil
}

// flush rewrites the whole document via temp file and rename. Callers must
// hold the write lock.
func (s *FileStore) flush() error {
	admins := s.snapshotLocked()
	data, err := json.MarshalIndent(admins, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize admins: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".admins-*.json")
	if err != nil {
		return fmt.Errorf("create admins temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write admins temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close admins temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace admins file: %w", err)
	}
	return nil
}

func (s *FileStore) snapshotLocked() []models.Admin {
	admins := make([]models.Admin, 0, len(s.order))
	for _, adminID := range s.order {
		admins = append(admins, s.admins[adminID])
	}
	return admins
}

// Create registers an admin and flushes before reporting success. On flush
// failure the in-memory insert is rolled back.
func (s *FileStore) Create(_ context.Context, admin models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[admin.AdminID]; ok {
		return sentinel.ErrAlreadyExists
	}

	s.admins[admin.AdminID] = admin
	s.order = append(s.order, admin.AdminID)

	if err := s.flush(); err != nil {
		delete(s.admins, admin.AdminID)
		s.order = s.order[:len(s.order)-1]
		return err
	}
	return nil
}

// FindByAdminID retrieves an admin or returns ErrNotFound.
func (s *FileStore) FindByAdminID(_ context.Context, adminID string) (models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if admin, ok := s.admins[adminID]; ok {
		return admin, nil
	}
	return models.Admin{}, sentinel.ErrNotFound
}

// Delete removes an admin and flushes. On flush failure the removal is rolled
// back.
func (s *FileStore) Delete(_ context.Context, adminID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.admins[adminID]
	if !ok {
		return sentinel.ErrNotFound
	}

	position := -1
	for i, existing := range s.order {
		if existing == adminID {
			position = i
			break
		}
	}
	delete(s.admins, adminID)
	if position >= 0 {
		s.order = append(s.order[:position], s.order[position+1:]...)
	}

	if err := s.flush(); err != nil {
		s.admins[adminID] = admin
		if position >= 0 {
			s.order = append(s.order[:position], append([]string{adminID}, s.order[position:]...)...)
		}
		return err
	}
	return nil
}

// ListAll returns the roster sorted by admin ID.
func (s *FileStore) ListAll(_ context.Context) ([]models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admins := s.snapshotLocked()
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].AdminID < admins[j].AdminID
	})
	return admins, nil
}

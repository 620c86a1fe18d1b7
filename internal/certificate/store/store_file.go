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
	"time"

	"sigil/internal/certificate/models"
	"sigil/internal/sentinel"
	id "sigil/pkg/domain"
)

// FileStore persists the registry as a single JSON document: an array of
// records, rewritten whole on every mutation. The full registry stays
// resident in memory; the file is the durable snapshot. A store-level mutex
// serializes writers so two racing revocations or issuances cannot lose
// updates, and readers never observe a half-written record.
//
// The document layout is compatible with the registry.json format of the
// original deployment.
type FileStore struct {
	path string

	mu      sync.RWMutex
	records map[id.CertificateID]models.CertificateRecord
	order   []id.CertificateID
}

// NewFileStore loads (or initializes) the registry document at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		records: make(map[id.CertificateID]models.CertificateRecord),
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
		return fmt.Errorf("read registry file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var records []models.CertificateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse registry file: %w", err)
	}
	for _, record := range records {
		s.records[record.CertificateID] = record
		s.order = append(s.order, record.CertificateID)
	}
	return nil
}

// flush rewrites the whole document. Callers must hold the write lock.
// The write goes through a temp file and rename so a crash mid-write cannot
// leave a truncated registry behind.
func (s *FileStore) flush() error {
	records := s.snapshotLocked()
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("create registry temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write registry temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close registry temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace registry file: %w", err)
	}
	return nil
}

func (s *FileStore) snapshotLocked() []models.CertificateRecord {
	records := make([]models.CertificateRecord, 0, len(s.order))
	for _, certID := range s.order {
		records = append(records, s.records[certID])
	}
	return records
}

// Create inserts a record and flushes the document before reporting success.
// On flush failure the in-memory insert is rolled back so the record is not
// visible to subsequent lookups.
func (s *FileStore) Create(_ context.Context, record models.CertificateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.CertificateID]; ok {
		return sentinel.ErrAlreadyExists
	}

	s.records[record.CertificateID] = record
	s.order = append(s.order, record.CertificateID)

	if err := s.flush(); err != nil {
		delete(s.records, record.CertificateID)
		s.order = s.order[:len(s.order)-1]
		return err
	}
	return nil
}

// FindByID retrieves a record by ID or returns ErrNotFound.
func (s *FileStore) FindByID(_ context.Context, certID id.CertificateID) (models.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[certID]; ok {
		return record, nil
	}
	return models.CertificateRecord{}, sentinel.ErrNotFound
}

// Revoke transitions a record to REVOKED and flushes. On flush failure the
// in-memory transition is rolled back.
func (s *FileStore) Revoke(_ context.Context, certID id.CertificateID, revokedBy string, revokedAt time.Time) (models.CertificateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[certID]
	if !ok {
		return models.CertificateRecord{}, sentinel.ErrNotFound
	}

	previous := record
	if err := revokeRecord(&record, revokedBy, revokedAt); err != nil {
		return record, err
	}
	s.records[certID] = record

	if err := s.flush(); err != nil {
		s.records[certID] = previous
		return models.CertificateRecord{}, err
	}
	return record, nil
}

// ListAll returns every record in issuance order.
func (s *FileStore) ListAll(_ context.Context) ([]models.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.snapshotLocked()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].IssuedAt.Before(records[j].IssuedAt)
	})
	return records, nil
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"sigil/internal/certificate/models"
	"sigil/internal/sentinel"
	id "sigil/pkg/domain"
)

// InMemoryStore is an in-memory implementation of Store for tests or local use.
// It is safe for concurrent access but does not persist across process restarts.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.CertificateID]models.CertificateRecord
}

// NewInMemoryStore constructs an empty in-memory registry.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.CertificateID]models.CertificateRecord)}
}

// Create inserts a new record, or returns ErrAlreadyExists on ID collision.
func (s *InMemoryStore) Create(_ context.Context, record models.CertificateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.CertificateID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.records[record.CertificateID] = record
	return nil
}

// FindByID retrieves a record by ID or returns ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, certID id.CertificateID) (models.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[certID]; ok {
		return record, nil
	}
	return models.CertificateRecord{}, sentinel.ErrNotFound
}

// Revoke transitions a record to REVOKED under the write lock.
func (s *InMemoryStore) Revoke(_ context.Context, certID id.CertificateID, revokedBy string, revokedAt time.Time) (models.CertificateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[certID]
	if !ok {
		return models.CertificateRecord{}, sentinel.ErrNotFound
	}
	if err := revokeRecord(&record, revokedBy, revokedAt); err != nil {
		return record, err
	}
	s.records[certID] = record
	return record, nil
}

// ListAll returns every record ordered by issuance time.
func (s *InMemoryStore) ListAll(_ context.Context) ([]models.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.CertificateRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].IssuedAt.Before(records[j].IssuedAt)
	})
	return records, nil
}

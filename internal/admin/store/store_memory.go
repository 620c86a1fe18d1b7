package store

import (
	"context"
	"sort"
	"sync"

	"sigil/internal/admin/models"
	"sigil/internal/sentinel"
)

// InMemoryStore keeps the roster in a map. Used in tests and ephemeral
// deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	admins map[string]models.Admin
}

// NewInMemoryStore creates an empty in-memory roster.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{admins: make(map[string]models.Admin)}
}

// Create registers an admin, rejecting duplicate IDs.
func (s *InMemoryStore) Create(_ context.Context, admin models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[admin.AdminID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.admins[admin.AdminID] = admin
	return nil
}

// FindByAdminID retrieves an admin or returns ErrNotFound.
func (s *InMemoryStore) FindByAdminID(_ context.Context, adminID string) (models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if admin, ok := s.admins[adminID]; ok {
		return admin, nil
	}
	return models.Admin{}, sentinel.ErrNotFound
}

// Delete removes an admin or returns ErrNotFound.
func (s *InMemoryStore) Delete(_ context.Context, adminID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[adminID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.admins, adminID)
	return nil
}

// ListAll returns the roster sorted by admin ID.
func (s *InMemoryStore) ListAll(_ context.Context) ([]models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admins := make([]models.Admin, 0, len(s.admins))
	for _, admin := range s.admins {
		admins = append(admins, admin)
	}
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].AdminID < admins[j].AdminID
	})
	return admins, nil
}

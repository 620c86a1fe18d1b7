package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sigil/internal/certificate/models"
	"sigil/internal/sentinel"
)

type FileStoreSuite struct {
	suite.Suite
	path  string
	store *FileStore
}

func (s *FileStoreSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "registry.json")
	store, err := NewFileStore(s.path)
	require.NoError(s.T(), err)
	s.store = store
}

func (s *FileStoreSuite) reopen() *FileStore {
	store, err := NewFileStore(s.path)
	require.NoError(s.T(), err)
	return store
}

func (s *FileStoreSuite) TestCreatePersistsBeforeSuccess() {
	record := newTestRecord("USER_123")
	require.NoError(s.T(), s.store.Create(context.Background(), record))

	// The record survives a process restart.
	found, err := s.reopen().FindByID(context.Background(), record.CertificateID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), record, found)
}

func (s *FileStoreSuite) TestCreateDuplicate() {
	record := newTestRecord("USER_123")
	require.NoError(s.T(), s.store.Create(context.Background(), record))
	assert.ErrorIs(s.T(), s.store.Create(context.Background(), record), sentinel.ErrAlreadyExists)
}

func (s *FileStoreSuite) TestCreateFailureLeavesNoRecord() {
	// Deleting the parent directory makes the snapshot write fail.
	record := newTestRecord("USER_123")
	require.NoError(s.T(), os.RemoveAll(filepath.Dir(s.path)))

	err := s.store.Create(context.Background(), record)
	require.Error(s.T(), err)

	_, err = s.store.FindByID(context.Background(), record.CertificateID)
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *FileStoreSuite) TestRevokePersists() {
	record := newTestRecord("USER_123")
	require.NoError(s.T(), s.store.Create(context.Background(), record))

	_, err := s.store.Revoke(context.Background(), record.CertificateID, "admin", time.Now().UTC())
	require.NoError(s.T(), err)

	found, err := s.reopen().FindByID(context.Background(), record.CertificateID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusRevoked, found.Status)
	assert.Equal(s.T(), "admin", found.RevokedBy)
	require.NotNil(s.T(), found.RevokedAt)
}

func (s *FileStoreSuite) TestRevokeIsMonotonicAcrossRestart() {
	record := newTestRecord("USER_123")
	require.NoError(s.T(), s.store.Create(context.Background(), record))

	first, err := s.store.Revoke(context.Background(), record.CertificateID, "admin", time.Now().UTC())
	require.NoError(s.T(), err)

	reopened := s.reopen()
	second, err := reopened.Revoke(context.Background(), record.CertificateID, "other-admin", time.Now().UTC().Add(time.Hour))
	assert.ErrorIs(s.T(), err, sentinel.ErrAlreadyRevoked)
	assert.Equal(s.T(), first.RevokedBy, second.RevokedBy)
}

func (s *FileStoreSuite) TestDocumentLayout() {
	record := newTestRecord("USER_123")
	require.NoError(s.T(), s.store.Create(context.Background(), record))

	data, err := os.ReadFile(s.path)
	require.NoError(s.T(), err)

	// The document is a JSON array with the legacy registry field names.
	var entries []map[string]any
	require.NoError(s.T(), json.Unmarshal(data, &entries))
	require.Len(s.T(), entries, 1)
	assert.Equal(s.T(), record.CertificateID.String(), entries[0]["certificateId"])
	assert.Equal(s.T(), record.Digest, entries[0]["hash"])
	assert.Equal(s.T(), "ACTIVE", entries[0]["status"])
}

func (s *FileStoreSuite) TestListAllAfterReload() {
	first := newTestRecord("USER_1")
	first.IssuedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	second := newTestRecord("USER_2")

	require.NoError(s.T(), s.store.Create(context.Background(), first))
	require.NoError(s.T(), s.store.Create(context.Background(), second))

	records, err := s.reopen().ListAll(context.Background())
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 2)
	assert.Equal(s.T(), first.CertificateID, records[0].CertificateID)
}

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, new(FileStoreSuite))
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sigil/internal/certificate/models"
	"sigil/internal/sentinel"
	id "sigil/pkg/domain"
)

func newTestRecord(owner string) models.CertificateRecord {
	return models.CertificateRecord{
		CertificateID: id.NewCertificateID(),
		Digest:        "0b7e3a36e3b0e7a78f5707ddca351cf5c1bbad9df41b59a4945b0bb62341ece5",
		OwnerID:       owner,
		Issuer:        "Demo Institute",
		Status:        models.StatusActive,
		Kind:          models.KindJSON,
		IssuedAt:      time.Now().UTC().Truncate(time.Millisecond),
	}
}

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	record := newTestRecord("USER_123")

	err := s.store.Create(context.Background(), record)
	require.NoError(s.T(), err)

	found, err := s.store.FindByID(context.Background(), record.CertificateID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), record, found)
}

func (s *InMemoryStoreSuite) TestCreateDuplicate() {
	record := newTestRecord("USER_123")
	require.NoError(s.T(), s.store.Create(context.Background(), record))

	err := s.store.Create(context.Background(), record)
	assert.ErrorIs(s.T(), err, sentinel.ErrAlreadyExists)
}

func (s *InMemoryStoreSuite) TestFindNotFound() {
	_, err := s.store.FindByID(context.Background(), id.NewCertificateID())
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestRevoke() {
	record := newTestRecord("USER_123")
	require.NoError(s.T(), s.store.Create(context.Background(), record))

	revokedAt := time.Now().UTC()
	revoked, err := s.store.Revoke(context.Background(), record.CertificateID, "admin", revokedAt)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.StatusRevoked, revoked.Status)
	assert.Equal(s.T(), "admin", revoked.RevokedBy)
	require.NotNil(s.T(), revoked.RevokedAt)
	assert.WithinDuration(s.T(), revokedAt, *revoked.RevokedAt, time.Second)

	// The transition is visible to subsequent reads.
	found, err := s.store.FindByID(context.Background(), record.CertificateID)
	require.NoError(s.T(), err)
	assert.True(s.T(), found.Revoked())
}

func (s *InMemoryStoreSuite) TestRevokeIsMonotonic() {
	record := newTestRecord("USER_123")
	require.NoError(s.T(), s.store.Create(context.Background(), record))

	first, err := s.store.Revoke(context.Background(), record.CertificateID, "admin", time.Now().UTC())
	require.NoError(s.T(), err)

	// Re-revoking reports the transition already happened and never
	// overwrites the original metadata.
	second, err := s.store.Revoke(context.Background(), record.CertificateID, "someone-else", time.Now().UTC().Add(time.Hour))
	assert.ErrorIs(s.T(), err, sentinel.ErrAlreadyRevoked)
	assert.Equal(s.T(), first.RevokedBy, second.RevokedBy)
	assert.Equal(s.T(), first.RevokedAt, second.RevokedAt)
}

func (s *InMemoryStoreSuite) TestRevokeNotFound() {
	_, err := s.store.Revoke(context.Background(), id.NewCertificateID(), "admin", time.Now())
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListAllOrdersByIssuance() {
	older := newTestRecord("USER_1")
	older.IssuedAt = time.Now().UTC().Add(-time.Hour)
	newer := newTestRecord("USER_2")

	require.NoError(s.T(), s.store.Create(context.Background(), newer))
	require.NoError(s.T(), s.store.Create(context.Background(), older))

	records, err := s.store.ListAll(context.Background())
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 2)
	assert.Equal(s.T(), older.CertificateID, records[0].CertificateID)
	assert.Equal(s.T(), newer.CertificateID, records[1].CertificateID)
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

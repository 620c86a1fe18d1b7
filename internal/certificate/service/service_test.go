package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"sigil/internal/certificate/models"
	"sigil/internal/certificate/store"
	dErrors "sigil/pkg/domain-errors"
)

// ProtocolSuite runs the issuance and verification protocols end to end
// against a real in-memory registry.
type ProtocolSuite struct {
	suite.Suite
	service *Service
}

func (s *ProtocolSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(store.NewInMemoryStore(), WithLogger(logger))
}

func TestProtocolSuite(t *testing.T) {
	suite.Run(t, new(ProtocolSuite))
}

func (s *ProtocolSuite) issue() *models.IssuedCertificate {
	issued, err := s.service.Issue(context.Background(), models.IssueRequest{
		SkillName: "React Basics",
		OwnerID:   "USER_123",
		Issuer:    "Demo Institute",
	})
	s.Require().NoError(err)
	s.Require().NotNil(issued.Content)
	return issued
}

func (s *ProtocolSuite) TestRoundTripValid() {
	issued := s.issue()

	result, err := s.service.Verify(context.Background(), models.VerifyRequest{
		Content:        *issued.Content,
		ClaimedOwnerID: "USER_123",
	})

	s.Require().NoError(err)
	s.Equal(models.OutcomeValid, result.Outcome)
	s.Equal("Certificate is authentic and belongs to the claimed owner", result.Message)
	s.Equal("Demo Institute", result.Issuer)
}

func (s *ProtocolSuite) TestTamperedContent() {
	issued := s.issue()

	altered := *issued.Content
	altered.SkillName = "React Advanced"

	result, err := s.service.Verify(context.Background(), models.VerifyRequest{
		Content:        altered,
		ClaimedOwnerID: "USER_123",
	})

	s.Require().NoError(err)
	s.Equal(models.OutcomeTampered, result.Outcome)
	s.Equal("Certificate content has been modified", result.Message)
}

func (s *ProtocolSuite) TestOwnershipMismatch() {
	issued := s.issue()

	result, err := s.service.Verify(context.Background(), models.VerifyRequest{
		Content:        *issued.Content,
		ClaimedOwnerID: "USER_456",
	})

	s.Require().NoError(err)
	s.Equal(models.OutcomeOwnershipMismatch, result.Outcome)
	s.Equal("Certificate does not belong to the claimed owner", result.Message)
}

func (s *ProtocolSuite) TestUnknownCertificate() {
	result, err := s.service.Verify(context.Background(), models.VerifyRequest{
		Content: models.CertificateContent{
			CertificateID: "3f1f2a34-9c55-4e7d-8a10-52b8d8e0f9aa",
			SkillName:     "React Basics",
			Issuer:        "Demo Institute",
			OwnerID:       "USER_123",
			IssuedAt:      "2024-03-01T12:00:00.000Z",
		},
		ClaimedOwnerID: "USER_123",
	})

	s.Require().NoError(err)
	s.Equal(models.OutcomeNotFound, result.Outcome)
	s.Equal("Certificate not found in registry", result.Message)
}

func (s *ProtocolSuite) TestMalformedIDIsNotFound() {
	result, err := s.service.Verify(context.Background(), models.VerifyRequest{
		Content: models.CertificateContent{
			CertificateID: "not-a-uuid",
			SkillName:     "React Basics",
			Issuer:        "Demo Institute",
			OwnerID:       "USER_123",
			IssuedAt:      "2024-03-01T12:00:00.000Z",
		},
		ClaimedOwnerID: "USER_123",
	})

	s.Require().NoError(err)
	s.Equal(models.OutcomeNotFound, result.Outcome)
}

func (s *ProtocolSuite) TestRevokedCertificate() {
	issued := s.issue()

	_, err := s.service.Revoke(context.Background(), issued.CertificateID.String(), "registrar")
	s.Require().NoError(err)

	result, err := s.service.Verify(context.Background(), models.VerifyRequest{
		Content:        *issued.Content,
		ClaimedOwnerID: "USER_123",
	})

	s.Require().NoError(err)
	s.Equal(models.OutcomeRevoked, result.Outcome)
	s.Equal("Certificate has been revoked by the issuer", result.Message)
}

func (s *ProtocolSuite) TestTamperCheckedBeforeOwnership() {
	// A certificate that is both tampered and presented by the wrong owner
	// reports TAMPERED: integrity runs before ownership.
	issued := s.issue()

	altered := *issued.Content
	altered.SkillName = "React Advanced"

	result, err := s.service.Verify(context.Background(), models.VerifyRequest{
		Content:        altered,
		ClaimedOwnerID: "USER_456",
	})

	s.Require().NoError(err)
	s.Equal(models.OutcomeTampered, result.Outcome)
}

func (s *ProtocolSuite) TestRevokedTamperedReportsTampered() {
	issued := s.issue()
	_, err := s.service.Revoke(context.Background(), issued.CertificateID.String(), "registrar")
	s.Require().NoError(err)

	altered := *issued.Content
	altered.Issuer = "Diploma Mill"

	result, err := s.service.Verify(context.Background(), models.VerifyRequest{
		Content:        altered,
		ClaimedOwnerID: "USER_123",
	})

	s.Require().NoError(err)
	s.Equal(models.OutcomeTampered, result.Outcome)
}

func (s *ProtocolSuite) TestVerifyMissingFields() {
	result, err := s.service.Verify(context.Background(), models.VerifyRequest{
		Content:        models.CertificateContent{SkillName: "React Basics"},
		ClaimedOwnerID: "",
	})

	s.Require().NoError(err)
	s.Equal(models.OutcomeError, result.Outcome)
	s.Equal("Missing certificate or claimedOwnerId", result.Message)
}

func (s *ProtocolSuite) TestIssueValidation() {
	_, err := s.service.Issue(context.Background(), models.IssueRequest{
		SkillName: "",
		OwnerID:   "USER_123",
		Issuer:    "Demo Institute",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Issue(context.Background(), models.IssueRequest{
		SkillName: "React Basics",
		OwnerID:   "   ",
		Issuer:    "Demo Institute",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ProtocolSuite) TestFileRoundTrip() {
	payload := []byte("%PDF-1.4 certificate body")

	issued, err := s.service.IssueFile(context.Background(), models.IssueFileRequest{
		Content: payload,
		OwnerID: "USER_123",
		Issuer:  "Demo Institute",
	})
	s.Require().NoError(err)

	result, err := s.service.VerifyFile(context.Background(), models.VerifyFileRequest{
		Content:        payload,
		CertificateID:  issued.CertificateID.String(),
		ClaimedOwnerID: "USER_123",
	})
	s.Require().NoError(err)
	s.Equal(models.OutcomeValid, result.Outcome)

	result, err = s.service.VerifyFile(context.Background(), models.VerifyFileRequest{
		Content:        []byte("%PDF-1.4 altered body"),
		CertificateID:  issued.CertificateID.String(),
		ClaimedOwnerID: "USER_123",
	})
	s.Require().NoError(err)
	s.Equal(models.OutcomeTampered, result.Outcome)
}

func (s *ProtocolSuite) TestRevokeTwiceKeepsFirstMetadata() {
	issued := s.issue()

	first, err := s.service.Revoke(context.Background(), issued.CertificateID.String(), "first-admin")
	s.Require().NoError(err)
	s.Require().NotNil(first.RevokedAt)

	second, err := s.service.Revoke(context.Background(), issued.CertificateID.String(), "second-admin")
	s.Require().NoError(err)
	s.Equal("first-admin", second.RevokedBy)
	s.Equal(first.RevokedAt.UnixMilli(), second.RevokedAt.UnixMilli())
}

func (s *ProtocolSuite) TestRevokeUnknownID() {
	_, err := s.service.Revoke(context.Background(), "3f1f2a34-9c55-4e7d-8a10-52b8d8e0f9aa", "registrar")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ProtocolSuite) TestListAll() {
	s.issue()
	s.issue()

	records, err := s.service.ListAll(context.Background())
	s.Require().NoError(err)
	s.Len(records, 2)
}

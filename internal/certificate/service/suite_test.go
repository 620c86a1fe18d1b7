package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AuditPublisher
//go:generate mockgen -source=../store/store.go -destination=mocks/store_mock.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sigil/internal/certificate/models"
	"sigil/internal/certificate/service/mocks"
	"sigil/internal/sentinel"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/audit"
)

// ServiceSuite exercises the service against mocked collaborators, mainly
// for failure injection (storage faults, audit emission).
type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockStore   *mocks.MockStore
	mockAuditor *mocks.MockAuditPublisher
	service     *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockAuditor = mocks.NewMockAuditPublisher(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.mockStore,
		WithLogger(logger),
		WithAuditor(s.mockAuditor),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestIssueStorageFailure() {
	s.mockStore.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(errors.New("disk full"))

	_, err := s.service.Issue(context.Background(), models.IssueRequest{
		SkillName: "React Basics",
		OwnerID:   "USER_123",
		Issuer:    "Demo Institute",
	})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStorage))
}

func (s *ServiceSuite) TestIssueEmitsAudit() {
	s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	var emitted audit.Event
	s.mockAuditor.EXPECT().
		Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event audit.Event) error {
			emitted = event
			return nil
		})

	issued, err := s.service.Issue(context.Background(), models.IssueRequest{
		SkillName: "React Basics",
		OwnerID:   "USER_123",
		Issuer:    "Demo Institute",
	})

	s.Require().NoError(err)
	s.Equal(audit.ActionCertificateIssued, emitted.Action)
	s.Equal(issued.CertificateID.String(), emitted.Subject)
	s.Equal("USER_123", emitted.OwnerID)
}

func (s *ServiceSuite) TestIssueSucceedsWhenAuditSinkFails() {
	// A failing audit sink must not fail the issuance itself.
	s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.mockAuditor.EXPECT().
		Emit(gomock.Any(), gomock.Any()).
		Return(errors.New("sink unavailable"))

	_, err := s.service.Issue(context.Background(), models.IssueRequest{
		SkillName: "React Basics",
		OwnerID:   "USER_123",
		Issuer:    "Demo Institute",
	})
	s.NoError(err)
}

func (s *ServiceSuite) TestVerifyStorageFailure() {
	s.mockStore.EXPECT().
		FindByID(gomock.Any(), gomock.Any()).
		Return(models.CertificateRecord{}, errors.New("connection refused"))

	_, err := s.service.Verify(context.Background(), models.VerifyRequest{
		Content: models.CertificateContent{
			CertificateID: "3f1f2a34-9c55-4e7d-8a10-52b8d8e0f9aa",
			SkillName:     "React Basics",
			Issuer:        "Demo Institute",
			OwnerID:       "USER_123",
			IssuedAt:      "2024-03-01T12:00:00.000Z",
		},
		ClaimedOwnerID: "USER_123",
	})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStorage))
}

func (s *ServiceSuite) TestRevokeAlreadyRevokedIsIdempotent() {
	revokedAt := time.Now().UTC()
	existing := models.CertificateRecord{
		Status:    models.StatusRevoked,
		OwnerID:   "USER_123",
		RevokedAt: &revokedAt,
		RevokedBy: "first-admin",
	}
	s.mockStore.EXPECT().
		Revoke(gomock.Any(), gomock.Any(), "second-admin", gomock.Any()).
		Return(existing, sentinel.ErrAlreadyRevoked)

	record, err := s.service.Revoke(context.Background(), "3f1f2a34-9c55-4e7d-8a10-52b8d8e0f9aa", "second-admin")

	s.Require().NoError(err)
	s.Equal("first-admin", record.RevokedBy)
}

func (s *ServiceSuite) TestRevokeNotFound() {
	s.mockStore.EXPECT().
		Revoke(gomock.Any(), gomock.Any(), "admin", gomock.Any()).
		Return(models.CertificateRecord{}, sentinel.ErrNotFound)

	_, err := s.service.Revoke(context.Background(), "3f1f2a34-9c55-4e7d-8a10-52b8d8e0f9aa", "admin")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

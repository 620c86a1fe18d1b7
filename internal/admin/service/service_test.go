package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sigil/internal/admin/store"
	"sigil/internal/admin/token"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/requestcontext"
)

type AdminServiceSuite struct {
	suite.Suite
	service *Service
	tokens  *token.Issuer
}

func (s *AdminServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.tokens = token.NewIssuer("test-signing-key", time.Hour)
	s.service = New(store.NewInMemoryStore(), s.tokens, WithLogger(logger))

	s.Require().NoError(s.service.Bootstrap(context.Background(), "Root Admin", "ADMIN_001", "correct horse"))
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) actingAs(adminID string) context.Context {
	return requestcontext.WithAdminActor(context.Background(), adminID)
}

func (s *AdminServiceSuite) TestLoginSuccess() {
	session, err := s.service.Login(context.Background(), "ADMIN_001", "correct horse")

	s.Require().NoError(err)
	s.NotEmpty(session.Token)
	s.Equal("ADMIN_001", session.Admin.AdminID)
	s.Equal("Root Admin", session.Admin.Name)

	adminID, err := s.tokens.VerifyAdminToken(session.Token)
	s.Require().NoError(err)
	s.Equal("ADMIN_001", adminID)
}

func (s *AdminServiceSuite) TestLoginWrongPassword() {
	_, err := s.service.Login(context.Background(), "ADMIN_001", "battery staple")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AdminServiceSuite) TestLoginUnknownAdmin() {
	// Same error as a wrong password, so callers cannot probe for IDs.
	_, err := s.service.Login(context.Background(), "ADMIN_404", "correct horse")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	var domainErr *dErrors.Error
	s.Require().ErrorAs(err, &domainErr)
	s.Equal("Invalid credentials", domainErr.Message)
}

func (s *AdminServiceSuite) TestAddAdmin() {
	admin, err := s.service.Add(s.actingAs("ADMIN_001"), "Second Admin", "ADMIN_002", "hunter2hunter2")
	s.Require().NoError(err)
	s.Equal("ADMIN_002", admin.AdminID)

	session, err := s.service.Login(context.Background(), "ADMIN_002", "hunter2hunter2")
	s.Require().NoError(err)
	s.Equal("Second Admin", session.Admin.Name)
}

func (s *AdminServiceSuite) TestAddDuplicate() {
	_, err := s.service.Add(s.actingAs("ADMIN_001"), "Clone", "ADMIN_001", "whatever1234")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AdminServiceSuite) TestAddValidation() {
	_, err := s.service.Add(s.actingAs("ADMIN_001"), "", "ADMIN_002", "whatever1234")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AdminServiceSuite) TestRemoveAdmin() {
	_, err := s.service.Add(s.actingAs("ADMIN_001"), "Second Admin", "ADMIN_002", "hunter2hunter2")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Remove(s.actingAs("ADMIN_001"), "ADMIN_002"))

	_, err = s.service.Login(context.Background(), "ADMIN_002", "hunter2hunter2")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AdminServiceSuite) TestCannotRemoveSelf() {
	err := s.service.Remove(s.actingAs("ADMIN_001"), "ADMIN_001")
	s.Require().Error(err)

	var domainErr *dErrors.Error
	s.Require().ErrorAs(err, &domainErr)
	s.Equal("Cannot remove yourself", domainErr.Message)
}

func (s *AdminServiceSuite) TestRemoveUnknown() {
	err := s.service.Remove(s.actingAs("ADMIN_001"), "ADMIN_404")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AdminServiceSuite) TestListOmitsCredentials() {
	admins, err := s.service.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(admins, 1)
	s.Equal("ADMIN_001", admins[0].AdminID)
}

func (s *AdminServiceSuite) TestBootstrapIsNoOpOnPopulatedRoster() {
	s.Require().NoError(s.service.Bootstrap(context.Background(), "Another", "ADMIN_999", "irrelevant123"))

	admins, err := s.service.List(context.Background())
	s.Require().NoError(err)
	s.Len(admins, 1)
}

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"sigil/internal/admin/models"
	"sigil/internal/sentinel"
)

type FileStoreSuite struct {
	suite.Suite
	path  string
	store *FileStore
}

func (s *FileStoreSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "admins.json")
	store, err := NewFileStore(s.path)
	s.Require().NoError(err)
	s.store = store
}

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, new(FileStoreSuite))
}

func (s *FileStoreSuite) TestPersistsAcrossReopen() {
	admin := models.Admin{Name: "Root Admin", AdminID: "ADMIN_001", PasswordHash: "$2a$10$hash"}
	s.Require().NoError(s.store.Create(context.Background(), admin))

	reopened, err := NewFileStore(s.path)
	s.Require().NoError(err)

	found, err := reopened.FindByAdminID(context.Background(), "ADMIN_001")
	s.Require().NoError(err)
	s.Equal(admin, found)
}

func (s *FileStoreSuite) TestRejectsDuplicate() {
	admin := models.Admin{Name: "Root Admin", AdminID: "ADMIN_001", PasswordHash: "$2a$10$hash"}
	s.Require().NoError(s.store.Create(context.Background(), admin))
	s.ErrorIs(s.store.Create(context.Background(), admin), sentinel.ErrAlreadyExists)
}

func (s *FileStoreSuite) TestDeletePersists() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, models.Admin{Name: "A", AdminID: "ADMIN_001", PasswordHash: "h"}))
	s.Require().NoError(s.store.Create(ctx, models.Admin{Name: "B", AdminID: "ADMIN_002", PasswordHash: "h"}))

	s.Require().NoError(s.store.Delete(ctx, "ADMIN_001"))

	reopened, err := NewFileStore(s.path)
	s.Require().NoError(err)
	_, err = reopened.FindByAdminID(ctx, "ADMIN_001")
	s.ErrorIs(err, sentinel.ErrNotFound)

	admins, err := reopened.ListAll(ctx)
	s.Require().NoError(err)
	s.Len(admins, 1)
}

func (s *FileStoreSuite) TestDeleteUnknown() {
	s.ErrorIs(s.store.Delete(context.Background(), "ADMIN_404"), sentinel.ErrNotFound)
}

func (s *FileStoreSuite) TestDocumentLayout() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, models.Admin{Name: "Root Admin", AdminID: "ADMIN_001", PasswordHash: "$2a$10$hash"}))

	data, err := os.ReadFile(s.path)
	s.Require().NoError(err)

	var doc []map[string]any
	s.Require().NoError(json.Unmarshal(data, &doc))
	s.Require().Len(doc, 1)
	s.Equal("ADMIN_001", doc[0]["adminId"])
	s.Equal("Root Admin", doc[0]["name"])
	s.Contains(doc[0], "passwordHash")
}

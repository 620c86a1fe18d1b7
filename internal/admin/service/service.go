// Package service implements institution administrator management: login,
// roster changes, and session token issuance.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sigil/internal/admin/models"
	"sigil/internal/admin/store"
	"sigil/internal/sentinel"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/audit"
	"sigil/pkg/requestcontext"
	"sigil/pkg/secrets"
)

// TokenIssuer mints admin session tokens.
type TokenIssuer interface {
	Generate(adminID, name string) (string, error)
}

// AuditPublisher emits audit events for admin actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Option configures the admin service.
type Option func(*Service)

// Service owns the administrator roster and login flow.
type Service struct {
	store   store.Store
	tokens  TokenIssuer
	auditor AuditPublisher
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an admin service backed by the given roster store.
func New(st store.Store, tokens TokenIssuer, opts ...Option) *Service {
	svc := &Service{
		store:  st,
		tokens: tokens,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithAuditor configures an audit publisher for the service.
func WithAuditor(auditor AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Session is a successful login result.
type Session struct {
	Token string
	Admin models.PublicAdmin
}

// Login verifies credentials and mints a session token. Unknown IDs and bad
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, adminID, password string) (*Session, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "adminId and password are required")
	}

	admin, err := s.store.FindByAdminID(ctx, adminID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "admin lookup failed")
	}

	if err := secrets.Verify(password, admin.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials")
		}
		return nil, err
	}

	token, err := s.tokens.Generate(admin.AdminID, admin.Name)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionAdminLogin,
		Subject:  admin.AdminID,
		Actor:    admin.AdminID,
		Decision: "authenticated",
	})

	return &Session{Token: token, Admin: admin.Public()}, nil
}

// Add registers a new administrator. The acting admin comes from the request
// context.
func (s *Service) Add(ctx context.Context, name, adminID, password string) (models.PublicAdmin, error) {
	name = strings.TrimSpace(name)
	adminID = strings.TrimSpace(adminID)
	if name == "" || adminID == "" || password == "" {
		return models.PublicAdmin{}, dErrors.New(dErrors.CodeValidation, "name, adminId, and password are required")
	}

	hash, err := secrets.Hash(password)
	if err != nil {
		return models.PublicAdmin{}, err
	}

	admin := models.Admin{Name: name, AdminID: adminID, PasswordHash: hash}
	if err := s.store.Create(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return models.PublicAdmin{}, dErrors.New(dErrors.CodeConflict, "Admin already exists")
		}
		return models.PublicAdmin{}, dErrors.Wrap(err, dErrors.CodeStorage, "failed to save admin")
	}

	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionAdminAdded,
		Subject:  adminID,
		Actor:    requestcontext.AdminActor(ctx),
		Decision: "added",
	})

	return admin.Public(), nil
}

// Remove deletes an administrator. An admin cannot remove their own account;
// that would allow emptying the roster and locking everyone out.
func (s *Service) Remove(ctx context.Context, adminID string) error {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return dErrors.New(dErrors.CodeValidation, "adminId is required")
	}

	actor := requestcontext.AdminActor(ctx)
	if actor == adminID {
		return dErrors.New(dErrors.CodeValidation, "Cannot remove yourself")
	}

	if err := s.store.Delete(ctx, adminID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Admin not found")
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to remove admin")
	}

	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionAdminRemoved,
		Subject:  adminID,
		Actor:    actor,
		Decision: "removed",
	})
	return nil
}

// List returns the roster without credential material.
func (s *Service) List(ctx context.Context) ([]models.PublicAdmin, error) {
	admins, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list admins")
	}

	public := make([]models.PublicAdmin, 0, len(admins))
	for _, admin := range admins {
		public = append(public, admin.Public())
	}
	return public, nil
}

// Bootstrap seeds an initial administrator when the roster is empty, so a
// fresh deployment has a login. Existing rosters are left untouched.
func (s *Service) Bootstrap(ctx context.Context, name, adminID, password string) error {
	admins, err := s.store.ListAll(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to inspect admin roster")
	}
	if len(admins) > 0 {
		return nil
	}

	hash, err := secrets.Hash(password)
	if err != nil {
		return err
	}
	if err := s.store.Create(ctx, models.Admin{Name: name, AdminID: adminID, PasswordHash: hash}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to seed admin roster")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "seeded bootstrap admin", "admin_id", adminID)
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}

	event.Timestamp = s.now().UTC()
	event.RequestID = requestcontext.RequestID(ctx)

	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"action", event.Action,
			"subject", event.Subject,
		)
	}
}

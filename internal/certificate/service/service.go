// Package service implements the issuance, verification, and revocation
// protocols on top of the fingerprint function and the registry store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sigil/internal/certificate/fingerprint"
	"sigil/internal/certificate/metrics"
	"sigil/internal/certificate/models"
	"sigil/internal/certificate/store"
	"sigil/internal/certificate/tracer"
	"sigil/internal/platform/device"
	"sigil/internal/sentinel"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/audit"
	"sigil/pkg/requestcontext"
)

// AuditPublisher emits audit events for certificate lifecycle actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Option configures the certificate service.
type Option func(*Service)

// Service owns the certificate protocols. It is stateless per call except
// for the shared registry store.
type Service struct {
	store   store.Store
	auditor AuditPublisher
	logger  *slog.Logger
	tracer  tracer.Tracer
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a certificate service backed by the given registry store.
func New(st store.Store, opts ...Option) *Service {
	svc := &Service{
		store:  st,
		tracer: tracer.NewNoop(),
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

// WithTracer configures a tracer for the service.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithMetrics configures Prometheus metrics for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the issuance clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Issue mints a new soulbound certificate from structured content. The
// server-assigned ID and issuance timestamp become part of the hashed
// content, so the caller must retain the returned content verbatim to
// verify later.
func (s *Service) Issue(ctx context.Context, req models.IssueRequest) (issued *models.IssuedCertificate, err error) {
	ctx, span := s.tracer.Start(ctx, "certificate.issue")
	defer func() { span.End(err) }()

	if err := validateIssue(req.SkillName, req.OwnerID, req.Issuer); err != nil {
		return nil, err
	}

	certID := id.NewCertificateID()
	issuedAt := s.now().UTC()

	content := models.CertificateContent{
		CertificateID: certID.String(),
		SkillName:     strings.TrimSpace(req.SkillName),
		Issuer:        strings.TrimSpace(req.Issuer),
		OwnerID:       strings.TrimSpace(req.OwnerID),
		IssuedAt:      fingerprint.FormatTimestamp(issuedAt),
	}

	digest, err := fingerprint.Content(content)
	if err != nil {
		return nil, err
	}

	record := models.CertificateRecord{
		CertificateID: certID,
		Digest:        digest,
		OwnerID:       content.OwnerID,
		Issuer:        content.Issuer,
		Status:        models.StatusActive,
		Kind:          models.KindJSON,
		IssuedAt:      issuedAt,
	}

	if err := s.persist(ctx, record); err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.String("certificate_id", certID.String()))

	s.countIssued(models.KindJSON)
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionCertificateIssued,
		Subject:  certID.String(),
		OwnerID:  record.OwnerID,
		Decision: "issued",
	})

	return &models.IssuedCertificate{
		CertificateID: certID,
		Digest:        digest,
		Content:       &content,
		Record:        record,
	}, nil
}

// IssueFile mints a new soulbound certificate for an uploaded file. The
// digest covers the raw file bytes only; the ID and timestamp are stored
// alongside it.
func (s *Service) IssueFile(ctx context.Context, req models.IssueFileRequest) (issued *models.IssuedCertificate, err error) {
	ctx, span := s.tracer.Start(ctx, "certificate.issue_file")
	defer func() { span.End(err) }()

	if len(req.Content) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "certificate file is required")
	}
	if err := validateIssue("-", req.OwnerID, req.Issuer); err != nil {
		return nil, err
	}

	certID := id.NewCertificateID()
	record := models.CertificateRecord{
		CertificateID: certID,
		Digest:        fingerprint.Bytes(req.Content),
		OwnerID:       strings.TrimSpace(req.OwnerID),
		Issuer:        strings.TrimSpace(req.Issuer),
		Status:        models.StatusActive,
		Kind:          models.KindFile,
		IssuedAt:      s.now().UTC(),
	}

	if err := s.persist(ctx, record); err != nil {
		return nil, err
	}
	span.SetAttributes(
		tracer.String("certificate_id", certID.String()),
		tracer.Int64("file_bytes", int64(len(req.Content))),
	)

	s.countIssued(models.KindFile)
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionCertificateIssued,
		Subject:  certID.String(),
		OwnerID:  record.OwnerID,
		Decision: "issued",
	})

	return &models.IssuedCertificate{
		CertificateID: certID,
		Digest:        record.Digest,
		Record:        record,
	}, nil
}

// Verify runs the verification pipeline for a structured certificate. The
// presented content is re-serialized through the same canonical routine used
// at issuance and compared against the registered digest.
func (s *Service) Verify(ctx context.Context, req models.VerifyRequest) (*models.VerificationResult, error) {
	if req.Content.CertificateID == "" || req.ClaimedOwnerID == "" {
		return malformed("Missing certificate or claimedOwnerId"), nil
	}

	digest, err := fingerprint.Content(req.Content)
	if err != nil {
		return nil, err
	}

	return s.runPipeline(ctx, req.Content.CertificateID, digest, req.ClaimedOwnerID)
}

// VerifyFile runs the verification pipeline for a file-based certificate.
func (s *Service) VerifyFile(ctx context.Context, req models.VerifyFileRequest) (*models.VerificationResult, error) {
	if len(req.Content) == 0 || req.CertificateID == "" || req.ClaimedOwnerID == "" {
		return malformed("Missing required fields"), nil
	}

	return s.runPipeline(ctx, req.CertificateID, fingerprint.Bytes(req.Content), req.ClaimedOwnerID)
}

// runPipeline is the ordered verification state machine: lookup, integrity,
// ownership, revocation. The first failing stage determines the outcome;
// later stages are never evaluated. Outcomes are values, not errors — only
// infrastructure faults surface as errors.
func (s *Service) runPipeline(ctx context.Context, rawID, presentedDigest, claimedOwnerID string) (result *models.VerificationResult, err error) {
	ctx, span := s.tracer.Start(ctx, "certificate.verify",
		tracer.String("certificate_id", rawID),
	)
	defer func() {
		if result != nil {
			span.SetAttributes(tracer.String("outcome", string(result.Outcome)))
		}
		span.End(err)
	}()

	certID, parseErr := id.ParseCertificateID(rawID)
	if parseErr != nil {
		// A syntactically invalid ID can never have been issued.
		return s.conclude(models.OutcomeNotFound, "Certificate not found in registry", ""), nil
	}

	record, err := s.store.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.conclude(models.OutcomeNotFound, "Certificate not found in registry", ""), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "registry lookup failed")
	}

	if presentedDigest != record.Digest {
		return s.conclude(models.OutcomeTampered, "Certificate content has been modified", ""), nil
	}

	if claimedOwnerID != record.OwnerID {
		return s.conclude(models.OutcomeOwnershipMismatch, "Certificate does not belong to the claimed owner", ""), nil
	}

	if record.Revoked() {
		return s.conclude(models.OutcomeRevoked, "Certificate has been revoked by the issuer", ""), nil
	}

	return s.conclude(models.OutcomeValid, "Certificate is authentic and belongs to the claimed owner", record.Issuer), nil
}

// Revoke transitions a certificate to REVOKED. Re-revoking an already-revoked
// certificate is a no-op returning the existing record; the original
// revocation metadata is preserved.
func (s *Service) Revoke(ctx context.Context, rawID, revokedBy string) (record *models.CertificateRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "certificate.revoke",
		tracer.String("certificate_id", rawID),
	)
	defer func() { span.End(err) }()

	if strings.TrimSpace(rawID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "certificateId is required")
	}
	if strings.TrimSpace(revokedBy) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "revoking admin is required")
	}

	certID, parseErr := id.ParseCertificateID(rawID)
	if parseErr != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "Certificate not found")
	}

	revoked, err := s.store.Revoke(ctx, certID, revokedBy, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "Certificate not found")
		case errors.Is(err, sentinel.ErrAlreadyRevoked):
			// Idempotent: report success without touching the record.
			return &revoked, nil
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to revoke certificate")
		}
	}

	if s.metrics != nil {
		s.metrics.Revocations.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionCertificateRevoked,
		Subject:  certID.String(),
		OwnerID:  revoked.OwnerID,
		Actor:    revokedBy,
		Decision: "revoked",
	})

	return &revoked, nil
}

// ListAll returns every registry record for dashboard display.
func (s *Service) ListAll(ctx context.Context) ([]models.CertificateRecord, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list certificates")
	}
	if s.metrics != nil {
		s.metrics.RegistrySize.Set(float64(len(records)))
	}
	return records, nil
}

func (s *Service) persist(ctx context.Context, record models.CertificateRecord) error {
	if err := s.store.Create(ctx, record); err != nil {
		// The issuance must not claim success if the write failed; no record
		// is visible to subsequent lookups.
		return dErrors.Wrap(err, dErrors.CodeStorage, "Failed to save certificate")
	}
	return nil
}

func (s *Service) conclude(outcome models.Outcome, message, issuer string) *models.VerificationResult {
	if s.metrics != nil {
		s.metrics.Verifications.WithLabelValues(string(outcome)).Inc()
	}
	return &models.VerificationResult{Outcome: outcome, Message: message, Issuer: issuer}
}

func malformed(message string) *models.VerificationResult {
	return &models.VerificationResult{Outcome: models.OutcomeError, Message: message}
}

func (s *Service) countIssued(kind models.Kind) {
	if s.metrics != nil {
		s.metrics.CertificatesIssued.WithLabelValues(string(kind)).Inc()
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}

	event.Timestamp = s.now().UTC()
	event.RequestID = requestcontext.RequestID(ctx)
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		event.Device = device.Summarize(ua)
	}

	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"action", event.Action,
			"subject", event.Subject,
		)
	}
}

func validateIssue(skillName, ownerID, issuer string) error {
	if strings.TrimSpace(skillName) == "" {
		return dErrors.New(dErrors.CodeValidation, "skillName is required")
	}
	if strings.TrimSpace(ownerID) == "" {
		return dErrors.New(dErrors.CodeValidation, "ownerId is required")
	}
	if strings.TrimSpace(issuer) == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer is required")
	}
	return nil
}

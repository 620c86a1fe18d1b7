// Package store owns the registry: the durable mapping from certificate ID to
// its issued record. It is the single source of truth for verification.
package store

import (
	"context"
	"time"

	"sigil/internal/certificate/models"
	"sigil/internal/sentinel"
	id "sigil/pkg/domain"
)

// Store is the registry contract. Implementations must guarantee that a
// Create or Revoke for a given certificate ID is observed atomically: no
// reader may see a half-written record. Create must persist synchronously
// before returning nil; a record must never exist only in memory after a
// successful Create.
//
// Implementations return sentinel errors (sentinel.ErrNotFound,
// sentinel.ErrAlreadyExists, sentinel.ErrAlreadyRevoked), optionally wrapped,
// so the service can translate them into domain errors exactly once.
type Store interface {
	// Create inserts a new record. The caller guarantees ID freshness via
	// random identifier generation; a collision surfaces as ErrAlreadyExists.
	Create(ctx context.Context, record models.CertificateRecord) error

	// FindByID retrieves a record, or ErrNotFound. No side effects.
	FindByID(ctx context.Context, certID id.CertificateID) (models.CertificateRecord, error)

	// Revoke transitions a record to REVOKED and persists revocation
	// metadata. Returns the record as stored after the call. Revoking an
	// already-revoked record returns the unchanged record and
	// ErrAlreadyRevoked; the original revocation metadata is never
	// overwritten.
	Revoke(ctx context.Context, certID id.CertificateID, revokedBy string, revokedAt time.Time) (models.CertificateRecord, error)

	// ListAll returns every record, for dashboard display.
	ListAll(ctx context.Context) ([]models.CertificateRecord, error)
}

// revokeRecord applies the status transition shared by all implementations.
// Returns ErrAlreadyRevoked without touching the record when the transition
// already happened.
func revokeRecord(record *models.CertificateRecord, revokedBy string, revokedAt time.Time) error {
	if record.Revoked() {
		return sentinel.ErrAlreadyRevoked
	}
	record.Status = models.StatusRevoked
	at := revokedAt.UTC()
	record.RevokedAt = &at
	record.RevokedBy = revokedBy
	return nil
}

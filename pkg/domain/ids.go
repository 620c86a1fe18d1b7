// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "sigil/pkg/domain-errors"
)

// CertificateID identifies an issued certificate. It is a 128-bit random UUID,
// which is what makes identifier generation collision-free without a uniqueness
// check in the registry.
type CertificateID uuid.UUID

// NewCertificateID mints a fresh, globally unique certificate identifier.
func NewCertificateID() CertificateID {
	return CertificateID(uuid.New())
}

// ParseCertificateID validates a certificate ID string at trust boundaries
// (handlers, API inputs).
func ParseCertificateID(s string) (CertificateID, error) {
	if s == "" {
		return CertificateID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "certificate ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return CertificateID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "invalid certificate ID format")
	}
	return CertificateID(id), nil
}

func (id CertificateID) String() string { return uuid.UUID(id).String() }

func (id CertificateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText implements encoding.TextMarshaler so the ID serializes as its
// canonical string form in JSON documents.
func (id CertificateID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *CertificateID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CertificateID(parsed)
	return nil
}

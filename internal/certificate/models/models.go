package models

import (
	"time"

	id "sigil/pkg/domain"
)

// Status is the lifecycle state of an issued certificate. It starts ACTIVE
// and transitions once, monotonically, to REVOKED. There is no un-revoke.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRevoked Status = "REVOKED"
)

// Kind distinguishes how the certificate digest was computed.
type Kind string

const (
	// KindJSON certificates are hashed over the canonical serialization of
	// their structured content, which covers the server-assigned ID and
	// issuance timestamp.
	KindJSON Kind = "JSON"
	// KindFile certificates are hashed over the raw uploaded bytes only;
	// the ID and timestamp are stored alongside the digest, not hashed in.
	KindFile Kind = "FILE"
)

// CertificateRecord is the persisted registry entry, one per issued
// certificate. The owner binding is the soulbound invariant: OwnerID never
// changes after issuance, the certificate can only be revoked.
type CertificateRecord struct {
	CertificateID id.CertificateID `json:"certificateId"`
	Digest        string           `json:"hash"`
	OwnerID       string           `json:"ownerId"`
	Issuer        string           `json:"issuer"`
	Status        Status           `json:"status"`
	Kind          Kind             `json:"type,omitempty"`
	IssuedAt      time.Time        `json:"issuedAt"`
	RevokedAt     *time.Time       `json:"revokedAt,omitempty"`
	RevokedBy     string           `json:"revokedBy,omitempty"`
}

// Revoked reports whether the record has been revoked.
func (r CertificateRecord) Revoked() bool {
	return r.Status == StatusRevoked
}

// CertificateContent is the structured certificate a holder presents.
// Field order here IS the canonical serialization order used for hashing;
// it must never change, or every previously issued digest becomes
// unverifiable. IssuedAt stays a string for the same reason: re-formatting
// a parsed timestamp would be indistinguishable from tampering.
type CertificateContent struct {
	CertificateID string `json:"certificateId"`
	SkillName     string `json:"skillName"`
	Issuer        string `json:"issuer"`
	OwnerID       string `json:"ownerId"`
	IssuedAt      string `json:"issuedAt"`
}

// IssueRequest captures the inputs required to issue a structured certificate.
type IssueRequest struct {
	SkillName string
	OwnerID   string
	Issuer    string
}

// IssueFileRequest captures the inputs required to issue a file-based certificate.
type IssueFileRequest struct {
	Content []byte
	OwnerID string
	Issuer  string
}

// IssuedCertificate is returned to the caller after successful issuance.
// Content is set for JSON-mode only; file-mode callers keep the original file.
type IssuedCertificate struct {
	CertificateID id.CertificateID
	Digest        string
	Content       *CertificateContent
	Record        CertificateRecord
}

// VerifyRequest is a structured-certificate verification call.
type VerifyRequest struct {
	Content        CertificateContent
	ClaimedOwnerID string
}

// VerifyFileRequest is a file-based verification call.
type VerifyFileRequest struct {
	Content        []byte
	CertificateID  string
	ClaimedOwnerID string
}

// Outcome is the terminal result of the verification pipeline. These are
// stable wire strings; verification failures are expected business outcomes,
// not errors.
type Outcome string

const (
	OutcomeValid             Outcome = "VALID"
	OutcomeNotFound          Outcome = "NOT_FOUND"
	OutcomeTampered          Outcome = "TAMPERED"
	OutcomeOwnershipMismatch Outcome = "OWNERSHIP_MISMATCH"
	OutcomeRevoked           Outcome = "REVOKED"
	// OutcomeError signals a malformed verification request (missing required
	// inputs), distinct from all verification results.
	OutcomeError Outcome = "ERROR"
)

// VerificationResult carries the pipeline outcome and a short human-readable
// message. Issuer is populated on VALID so callers can display who issued
// the certificate.
type VerificationResult struct {
	Outcome Outcome
	Message string
	Issuer  string
}

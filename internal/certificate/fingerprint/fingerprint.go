// Package fingerprint computes the content digest that anchors certificate
// integrity checking. Issuance and verification MUST go through this package:
// the canonical serialization lives here and nowhere else, because any drift
// in field order or formatting between the two sides is indistinguishable
// from tampering.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"sigil/internal/certificate/models"
	dErrors "sigil/pkg/domain-errors"
)

// timestampLayout is the issuance timestamp format embedded in canonical
// content: UTC, millisecond precision, trailing Z.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Bytes returns the lowercase hex SHA-256 digest of a raw byte sequence.
// Used for file-based certificates.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Content returns the digest of a structured certificate's canonical
// serialization. The serialization is compact JSON with fields in the fixed
// order declared on models.CertificateContent.
func Content(content models.CertificateContent) (string, error) {
	canonical, err := Canonical(content)
	if err != nil {
		return "", err
	}
	return Bytes(canonical), nil
}

// Canonical produces the exact byte sequence that is hashed for a structured
// certificate. Exposed so tests can pin the serialization format.
func Canonical(content models.CertificateContent) ([]byte, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not serialize certificate content")
	}
	return data, nil
}

// FormatTimestamp renders an issuance time in the canonical timestamp format.
// The formatted string is part of the hashed content, so the format is fixed
// forever alongside the field order.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

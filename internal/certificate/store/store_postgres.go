package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sigil/internal/certificate/models"
	"sigil/internal/sentinel"
	id "sigil/pkg/domain"
)

// PostgresStore persists the registry in PostgreSQL. Per-record atomicity
// comes from single-row statements; the revoke transition is guarded by a
// status predicate so concurrent revocations cannot overwrite each other's
// metadata.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record models.CertificateRecord) error {
	query := `
		INSERT INTO certificates (id, digest, owner_id, issuer, status, kind, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		record.CertificateID.String(),
		record.Digest,
		record.OwnerID,
		record.Issuer,
		string(record.Status),
		string(record.Kind),
		record.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrAlreadyExists
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, certID id.CertificateID) (models.CertificateRecord, error) {
	query := `
		SELECT id, digest, owner_id, issuer, status, kind, issued_at, revoked_at, revoked_by
		FROM certificates
		WHERE id = $1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, certID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CertificateRecord{}, sentinel.ErrNotFound
		}
		return models.CertificateRecord{}, fmt.Errorf("find certificate by id: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, certID id.CertificateID, revokedBy string, revokedAt time.Time) (models.CertificateRecord, error) {
	query := `
		UPDATE certificates
		SET status = $2, revoked_at = $3, revoked_by = $4
		WHERE id = $1 AND status = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		certID.String(),
		string(models.StatusRevoked),
		revokedAt.UTC(),
		revokedBy,
		string(models.StatusActive),
	)
	if err != nil {
		return models.CertificateRecord{}, fmt.Errorf("revoke certificate: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return models.CertificateRecord{}, fmt.Errorf("revoke certificate: %w", err)
	}

	record, findErr := s.FindByID(ctx, certID)
	if findErr != nil {
		return models.CertificateRecord{}, findErr
	}
	if rows == 0 {
		// Row existed but was not ACTIVE: the transition already happened.
		return record, sentinel.ErrAlreadyRevoked
	}
	return record, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]models.CertificateRecord, error) {
	query := `
		SELECT id, digest, owner_id, issuer, status, kind, issued_at, revoked_at, revoked_by
		FROM certificates
		ORDER BY issued_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var records []models.CertificateRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list certificates: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.CertificateRecord, error) {
	var (
		record    models.CertificateRecord
		rawID     string
		status    string
		kind      string
		revokedAt sql.NullTime
		revokedBy sql.NullString
	)
	if err := row.Scan(&rawID, &record.Digest, &record.OwnerID, &record.Issuer,
		&status, &kind, &record.IssuedAt, &revokedAt, &revokedBy); err != nil {
		return models.CertificateRecord{}, err
	}

	certID, err := id.ParseCertificateID(rawID)
	if err != nil {
		return models.CertificateRecord{}, fmt.Errorf("stored certificate id %q: %w", rawID, err)
	}
	record.CertificateID = certID
	record.Status = models.Status(status)
	record.Kind = models.Kind(kind)
	if revokedAt.Valid {
		at := revokedAt.Time
		record.RevokedAt = &at
	}
	if revokedBy.Valid {
		record.RevokedBy = revokedBy.String
	}
	return record, nil
}

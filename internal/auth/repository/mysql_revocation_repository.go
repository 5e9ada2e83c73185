package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	"github.com/email-management-platform/backend/gateway/internal/database"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

// MySQLRevocationRepository implements the revocation audit trail for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via
// database.GetTx().
type MySQLRevocationRepository struct {
	db *sql.DB
}

// NewMySQLRevocationRepository creates a new MySQL revocation repository.
func NewMySQLRevocationRepository(db *sql.DB) *MySQLRevocationRepository {
	return &MySQLRevocationRepository{db: db}
}

// Create inserts a new revocation audit record.
func (m *MySQLRevocationRepository) Create(ctx context.Context, revocation *authDomain.Revocation) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO revocations (id, token_digest, subject, reason, revoked_at, expires_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := revocation.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal revocation id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		revocation.TokenDigest,
		revocation.Subject,
		revocation.Reason,
		revocation.RevokedAt,
		revocation.ExpiresAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create revocation")
	}
	return nil
}

// List returns revocation records ordered by revocation time, newest first.
func (m *MySQLRevocationRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.Revocation, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, token_digest, subject, reason, revoked_at, expires_at
			  FROM revocations ORDER BY revoked_at DESC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list revocations")
	}
	defer func() { _ = rows.Close() }()

	return scanMySQLRevocations(rows)
}

// ListActive returns revocation records that are still inside their retention
// window at the given instant.
func (m *MySQLRevocationRepository) ListActive(ctx context.Context, now time.Time) ([]*authDomain.Revocation, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, token_digest, subject, reason, revoked_at, expires_at
			  FROM revocations WHERE expires_at > ?`

	rows, err := querier.QueryContext(ctx, query, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active revocations")
	}
	defer func() { _ = rows.Close() }()

	return scanMySQLRevocations(rows)
}

// DeleteExpired removes revocation records whose retention window ended
// before the given instant. Returns the number of removed records.
func (m *MySQLRevocationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM revocations WHERE expires_at <= ?`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired revocations")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted revocations")
	}

	return deleted, nil
}

// scanMySQLRevocations collects revocation rows, converting BINARY(16) IDs
// back into UUIDs.
func scanMySQLRevocations(rows *sql.Rows) ([]*authDomain.Revocation, error) {
	revocations := []*authDomain.Revocation{}

	for rows.Next() {
		var revocation authDomain.Revocation
		var idBytes []byte

		err := rows.Scan(
			&idBytes,
			&revocation.TokenDigest,
			&revocation.Subject,
			&revocation.Reason,
			&revocation.RevokedAt,
			&revocation.ExpiresAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan revocation")
		}

		id, err := uuid.FromBytes(idBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal revocation id")
		}
		revocation.ID = id

		revocations = append(revocations, &revocation)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate revocations")
	}

	return revocations, nil
}

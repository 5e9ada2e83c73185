package repository

import (
	"context"
	"database/sql"
	"time"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	"github.com/email-management-platform/backend/gateway/internal/database"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

// PostgreSQLRevocationRepository implements the revocation audit trail for
// PostgreSQL. Uses native UUID types with transaction support via
// database.GetTx().
type PostgreSQLRevocationRepository struct {
	db *sql.DB
}

// NewPostgreSQLRevocationRepository creates a new PostgreSQL revocation
// repository.
func NewPostgreSQLRevocationRepository(db *sql.DB) *PostgreSQLRevocationRepository {
	return &PostgreSQLRevocationRepository{db: db}
}

// Create inserts a new revocation audit record.
func (p *PostgreSQLRevocationRepository) Create(ctx context.Context, revocation *authDomain.Revocation) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO revocations (id, token_digest, subject, reason, revoked_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		revocation.ID,
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
func (p *PostgreSQLRevocationRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.Revocation, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_digest, subject, reason, revoked_at, expires_at
			  FROM revocations ORDER BY revoked_at DESC LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list revocations")
	}
	defer func() { _ = rows.Close() }()

	return scanRevocations(rows)
}

// ListActive returns revocation records that are still inside their retention
// window at the given instant. Used to rehydrate the blacklist on startup
// when the shared store is process-local.
func (p *PostgreSQLRevocationRepository) ListActive(ctx context.Context, now time.Time) ([]*authDomain.Revocation, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_digest, subject, reason, revoked_at, expires_at
			  FROM revocations WHERE expires_at > $1`

	rows, err := querier.QueryContext(ctx, query, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active revocations")
	}
	defer func() { _ = rows.Close() }()

	return scanRevocations(rows)
}

// DeleteExpired removes revocation records whose retention window ended
// before the given instant. Returns the number of removed records.
func (p *PostgreSQLRevocationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM revocations WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired revocations")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted revocations")
	}

	return deleted, nil
}

// scanRevocations collects revocation rows. Shared by the PostgreSQL list
// queries; the MySQL repository has its own variant for BINARY(16) IDs.
func scanRevocations(rows *sql.Rows) ([]*authDomain.Revocation, error) {
	revocations := []*authDomain.Revocation{}

	for rows.Next() {
		var revocation authDomain.Revocation
		err := rows.Scan(
			&revocation.ID,
			&revocation.TokenDigest,
			&revocation.Subject,
			&revocation.Reason,
			&revocation.RevokedAt,
			&revocation.ExpiresAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan revocation")
		}
		revocations = append(revocations, &revocation)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate revocations")
	}

	return revocations, nil
}

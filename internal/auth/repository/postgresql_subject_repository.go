package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	"github.com/email-management-platform/backend/gateway/internal/database"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

// PostgreSQLSubjectRepository implements the subject directory against a
// PostgreSQL replica of the identity data. Uses native UUID types with
// transaction support via database.GetTx().
type PostgreSQLSubjectRepository struct {
	db *sql.DB
}

// NewPostgreSQLSubjectRepository creates a new PostgreSQL subject repository.
func NewPostgreSQLSubjectRepository(db *sql.DB) *PostgreSQLSubjectRepository {
	return &PostgreSQLSubjectRepository{db: db}
}

// RolesForSubject returns the roles assigned to the subject identified by its
// external ID. Returns ErrSubjectNotFound when the subject does not exist or
// is inactive; a subject with no assigned roles yields an empty list.
func (p *PostgreSQLSubjectRepository) RolesForSubject(ctx context.Context, externalID string) ([]string, error) {
	querier := database.GetTx(ctx, p.db)

	var subjectID uuid.UUID
	var isActive bool

	err := querier.QueryRowContext(
		ctx,
		`SELECT id, is_active FROM subjects WHERE external_id = $1`,
		externalID,
	).Scan(&subjectID, &isActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrSubjectNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get subject")
	}
	if !isActive {
		return nil, apperrors.Wrap(authDomain.ErrSubjectNotFound, "subject inactive")
	}

	return p.rolesBySubjectID(ctx, querier, subjectID)
}

// Create inserts the subject row. Returns ErrSubjectExists when the external
// ID is already registered.
func (p *PostgreSQLSubjectRepository) Create(ctx context.Context, subject *authDomain.Subject) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO subjects (id, external_id, email, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		subject.ID,
		subject.ExternalID,
		subject.Email,
		subject.IsActive,
		subject.CreatedAt,
		subject.UpdatedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return authDomain.ErrSubjectExists
		}
		return apperrors.Wrap(err, "failed to create subject")
	}
	return nil
}

// Get returns a subject with its assigned roles, active or not. Returns
// ErrSubjectNotFound when no subject has the external ID.
func (p *PostgreSQLSubjectRepository) Get(ctx context.Context, externalID string) (*authDomain.Subject, error) {
	querier := database.GetTx(ctx, p.db)

	var subject authDomain.Subject
	err := querier.QueryRowContext(
		ctx,
		`SELECT id, external_id, email, is_active, created_at, updated_at
		 FROM subjects WHERE external_id = $1`,
		externalID,
	).Scan(
		&subject.ID,
		&subject.ExternalID,
		&subject.Email,
		&subject.IsActive,
		&subject.CreatedAt,
		&subject.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrSubjectNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get subject")
	}

	roles, err := p.rolesBySubjectID(ctx, querier, subject.ID)
	if err != nil {
		return nil, err
	}
	subject.Roles = roles

	return &subject, nil
}

// List returns subjects with their assigned roles, newest first.
func (p *PostgreSQLSubjectRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.Subject, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, external_id, email, is_active, created_at, updated_at
			  FROM subjects ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list subjects")
	}
	defer func() { _ = rows.Close() }()

	subjects := []*authDomain.Subject{}
	for rows.Next() {
		var subject authDomain.Subject
		err := rows.Scan(
			&subject.ID,
			&subject.ExternalID,
			&subject.Email,
			&subject.IsActive,
			&subject.CreatedAt,
			&subject.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan subject")
		}
		subjects = append(subjects, &subject)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate subjects")
	}

	// The subject rows are exhausted before the role queries run, so this is
	// safe on a single transaction connection.
	for _, subject := range subjects {
		roles, err := p.rolesBySubjectID(ctx, querier, subject.ID)
		if err != nil {
			return nil, err
		}
		subject.Roles = roles
	}

	return subjects, nil
}

// Update overwrites the subject's email, active flag, and update time.
func (p *PostgreSQLSubjectRepository) Update(ctx context.Context, subject *authDomain.Subject) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE subjects SET email = $1, is_active = $2, updated_at = $3 WHERE external_id = $4`

	_, err := querier.ExecContext(ctx, query, subject.Email, subject.IsActive, subject.UpdatedAt, subject.ExternalID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update subject")
	}
	return nil
}

// Deactivate clears the subject's active flag.
func (p *PostgreSQLSubjectRepository) Deactivate(ctx context.Context, externalID string) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE subjects SET is_active = FALSE, updated_at = NOW() WHERE external_id = $1`

	if _, err := querier.ExecContext(ctx, query, externalID); err != nil {
		return apperrors.Wrap(err, "failed to deactivate subject")
	}
	return nil
}

// ReplaceRoles overwrites the subject's role assignment.
func (p *PostgreSQLSubjectRepository) ReplaceRoles(ctx context.Context, subjectID uuid.UUID, roles []string) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM subject_roles WHERE subject_id = $1`, subjectID); err != nil {
		return apperrors.Wrap(err, "failed to clear subject roles")
	}

	for _, role := range roles {
		_, err := querier.ExecContext(
			ctx,
			`INSERT INTO subject_roles (subject_id, role) VALUES ($1, $2)`,
			subjectID,
			role,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to assign subject role")
		}
	}
	return nil
}

// rolesBySubjectID loads the role assignment for a subject row.
func (p *PostgreSQLSubjectRepository) rolesBySubjectID(
	ctx context.Context,
	querier database.Querier,
	subjectID uuid.UUID,
) ([]string, error) {
	rows, err := querier.QueryContext(
		ctx,
		`SELECT role FROM subject_roles WHERE subject_id = $1 ORDER BY role`,
		subjectID,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list subject roles")
	}
	defer func() { _ = rows.Close() }()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan subject role")
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate subject roles")
	}

	return roles, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique
// constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}

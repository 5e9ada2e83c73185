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

// MySQLSubjectRepository implements the subject directory against a MySQL
// replica of the identity data. Uses BINARY(16) for UUID storage with
// transaction support via database.GetTx().
type MySQLSubjectRepository struct {
	db *sql.DB
}

// NewMySQLSubjectRepository creates a new MySQL subject repository.
func NewMySQLSubjectRepository(db *sql.DB) *MySQLSubjectRepository {
	return &MySQLSubjectRepository{db: db}
}

// RolesForSubject returns the roles assigned to the subject identified by its
// external ID. Returns ErrSubjectNotFound when the subject does not exist or
// is inactive; a subject with no assigned roles yields an empty list.
func (m *MySQLSubjectRepository) RolesForSubject(ctx context.Context, externalID string) ([]string, error) {
	querier := database.GetTx(ctx, m.db)

	var idBytes []byte
	var isActive bool

	err := querier.QueryRowContext(
		ctx,
		`SELECT id, is_active FROM subjects WHERE external_id = ?`,
		externalID,
	).Scan(&idBytes, &isActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrSubjectNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get subject")
	}
	if !isActive {
		return nil, apperrors.Wrap(authDomain.ErrSubjectNotFound, "subject inactive")
	}

	if _, err := uuid.FromBytes(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
	}

	return m.rolesBySubjectID(ctx, querier, idBytes)
}

// Create inserts the subject row. Returns ErrSubjectExists when the external
// ID is already registered.
func (m *MySQLSubjectRepository) Create(ctx context.Context, subject *authDomain.Subject) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO subjects (id, external_id, email, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := subject.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subject id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		subject.ExternalID,
		subject.Email,
		subject.IsActive,
		subject.CreatedAt,
		subject.UpdatedAt,
	)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return authDomain.ErrSubjectExists
		}
		return apperrors.Wrap(err, "failed to create subject")
	}
	return nil
}

// Get returns a subject with its assigned roles, active or not. Returns
// ErrSubjectNotFound when no subject has the external ID.
func (m *MySQLSubjectRepository) Get(ctx context.Context, externalID string) (*authDomain.Subject, error) {
	querier := database.GetTx(ctx, m.db)

	var subject authDomain.Subject
	var idBytes []byte

	err := querier.QueryRowContext(
		ctx,
		`SELECT id, external_id, email, is_active, created_at, updated_at
		 FROM subjects WHERE external_id = ?`,
		externalID,
	).Scan(
		&idBytes,
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

	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
	}
	subject.ID = id

	roles, err := m.rolesBySubjectID(ctx, querier, idBytes)
	if err != nil {
		return nil, err
	}
	subject.Roles = roles

	return &subject, nil
}

// List returns subjects with their assigned roles, newest first.
func (m *MySQLSubjectRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.Subject, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, external_id, email, is_active, created_at, updated_at
			  FROM subjects ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list subjects")
	}
	defer func() { _ = rows.Close() }()

	subjects := []*authDomain.Subject{}
	ids := [][]byte{}
	for rows.Next() {
		var subject authDomain.Subject
		var idBytes []byte

		err := rows.Scan(
			&idBytes,
			&subject.ExternalID,
			&subject.Email,
			&subject.IsActive,
			&subject.CreatedAt,
			&subject.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan subject")
		}

		id, err := uuid.FromBytes(idBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
		}
		subject.ID = id

		subjects = append(subjects, &subject)
		ids = append(ids, idBytes)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate subjects")
	}

	// The subject rows are exhausted before the role queries run, so this is
	// safe on a single transaction connection.
	for i, subject := range subjects {
		roles, err := m.rolesBySubjectID(ctx, querier, ids[i])
		if err != nil {
			return nil, err
		}
		subject.Roles = roles
	}

	return subjects, nil
}

// Update overwrites the subject's email, active flag, and update time.
func (m *MySQLSubjectRepository) Update(ctx context.Context, subject *authDomain.Subject) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE subjects SET email = ?, is_active = ?, updated_at = ? WHERE external_id = ?`

	_, err := querier.ExecContext(ctx, query, subject.Email, subject.IsActive, subject.UpdatedAt, subject.ExternalID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update subject")
	}
	return nil
}

// Deactivate clears the subject's active flag.
func (m *MySQLSubjectRepository) Deactivate(ctx context.Context, externalID string) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE subjects SET is_active = FALSE, updated_at = NOW(6) WHERE external_id = ?`

	if _, err := querier.ExecContext(ctx, query, externalID); err != nil {
		return apperrors.Wrap(err, "failed to deactivate subject")
	}
	return nil
}

// ReplaceRoles overwrites the subject's role assignment.
func (m *MySQLSubjectRepository) ReplaceRoles(ctx context.Context, subjectID uuid.UUID, roles []string) error {
	querier := database.GetTx(ctx, m.db)

	id, err := subjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subject id")
	}

	if _, err := querier.ExecContext(ctx, `DELETE FROM subject_roles WHERE subject_id = ?`, id); err != nil {
		return apperrors.Wrap(err, "failed to clear subject roles")
	}

	for _, role := range roles {
		_, err := querier.ExecContext(
			ctx,
			`INSERT INTO subject_roles (subject_id, role) VALUES (?, ?)`,
			id,
			role,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to assign subject role")
		}
	}
	return nil
}

// rolesBySubjectID loads the role assignment for a subject row.
func (m *MySQLSubjectRepository) rolesBySubjectID(
	ctx context.Context,
	querier database.Querier,
	subjectID []byte,
) ([]string, error) {
	rows, err := querier.QueryContext(
		ctx,
		`SELECT role FROM subject_roles WHERE subject_id = ? ORDER BY role`,
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

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate key violation.
func isMySQLDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	// MySQL: "Error 1062 (23000): Duplicate entry '...' for key ..."
	return strings.Contains(strings.ToLower(err.Error()), "duplicate entry")
}

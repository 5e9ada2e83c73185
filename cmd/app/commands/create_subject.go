package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	authUseCase "github.com/email-management-platform/backend/gateway/internal/auth/usecase"
)

// RunCreateSubject registers a subject in the local directory with its role
// assignment. Outputs the created subject in either text or JSON format.
//
// Requirements: The sql identity backend must be configured and the database
// migrated and accessible.
func RunCreateSubject(
	ctx context.Context,
	subjectUseCase authUseCase.SubjectUseCase,
	logger *slog.Logger,
	writer io.Writer,
	externalID string,
	email string,
	roles []string,
	format string,
) error {
	if strings.TrimSpace(externalID) == "" {
		return fmt.Errorf("external-id is required")
	}

	logger.Info("creating subject",
		slog.String("external_id", externalID),
		slog.Any("roles", roles),
	)

	subject, err := subjectUseCase.Create(ctx, &authDomain.CreateSubjectInput{
		ExternalID: externalID,
		Email:      email,
		Roles:      roles,
	})
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputSubjectJSON(subject, writer)
	} else {
		outputSubjectText(subject, writer)
	}

	logger.Info("subject created",
		slog.String("subject_id", subject.ID.String()),
		slog.String("external_id", subject.ExternalID),
	)

	return nil
}

// outputSubjectText outputs the subject in human-readable text format.
func outputSubjectText(subject *authDomain.Subject, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "Subject created successfully!")
	_, _ = fmt.Fprintf(writer, "ID: %s\n", subject.ID.String())
	_, _ = fmt.Fprintf(writer, "External ID: %s\n", subject.ExternalID)
	if subject.Email != "" {
		_, _ = fmt.Fprintf(writer, "Email: %s\n", subject.Email)
	}
	_, _ = fmt.Fprintf(writer, "Roles: %s\n", strings.Join(subject.Roles, ", "))
}

// outputSubjectJSON outputs the subject in JSON format for machine
// consumption.
func outputSubjectJSON(subject *authDomain.Subject, writer io.Writer) {
	result := map[string]interface{}{
		"subject_id":  subject.ID.String(),
		"external_id": subject.ExternalID,
		"email":       subject.Email,
		"is_active":   subject.IsActive,
		"roles":       subject.Roles,
		"created_at":  subject.CreatedAt.Format(time.RFC3339),
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}

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

// RunListSubjects prints directory subjects with their role assignments,
// newest first.
//
// Requirements: The sql identity backend must be configured and the database
// migrated and accessible.
func RunListSubjects(
	ctx context.Context,
	subjectUseCase authUseCase.SubjectUseCase,
	logger *slog.Logger,
	writer io.Writer,
	offset int,
	limit int,
	format string,
) error {
	if offset < 0 {
		return fmt.Errorf("offset must not be negative, got: %d", offset)
	}
	if limit <= 0 {
		return fmt.Errorf("limit must be a positive number, got: %d", limit)
	}

	logger.Info("listing subjects",
		slog.Int("offset", offset),
		slog.Int("limit", limit),
	)

	subjects, err := subjectUseCase.List(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list subjects: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputSubjectListJSON(subjects, writer)
	} else {
		outputSubjectListText(subjects, writer)
	}

	return nil
}

// outputSubjectListText outputs the subjects in human-readable text format.
func outputSubjectListText(subjects []*authDomain.Subject, writer io.Writer) {
	if len(subjects) == 0 {
		_, _ = fmt.Fprintln(writer, "No subjects found")
		return
	}

	_, _ = fmt.Fprintf(writer, "Found %d subject(s)\n\n", len(subjects))
	for _, subject := range subjects {
		_, _ = fmt.Fprintf(writer, "External ID: %s\n", subject.ExternalID)
		if subject.Email != "" {
			_, _ = fmt.Fprintf(writer, "  Email: %s\n", subject.Email)
		}
		_, _ = fmt.Fprintf(writer, "  Active: %t\n", subject.IsActive)
		_, _ = fmt.Fprintf(writer, "  Roles: %s\n", strings.Join(subject.Roles, ", "))
		_, _ = fmt.Fprintf(writer, "  Created at: %s\n", subject.CreatedAt.Format(time.RFC3339))
	}
}

// outputSubjectListJSON outputs the subjects in JSON format for machine
// consumption.
func outputSubjectListJSON(subjects []*authDomain.Subject, writer io.Writer) {
	items := make([]map[string]interface{}, 0, len(subjects))
	for _, subject := range subjects {
		items = append(items, map[string]interface{}{
			"subject_id":  subject.ID.String(),
			"external_id": subject.ExternalID,
			"email":       subject.Email,
			"is_active":   subject.IsActive,
			"roles":       subject.Roles,
			"created_at":  subject.CreatedAt.Format(time.RFC3339),
		})
	}

	result := map[string]interface{}{
		"count": len(subjects),
		"data":  items,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}

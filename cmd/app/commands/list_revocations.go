package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	authUseCase "github.com/email-management-platform/backend/gateway/internal/auth/usecase"
)

// RunListRevocations prints revocation audit records, newest first.
// Only token digests appear in the output; raw tokens are never stored.
//
// Requirements: Database must be migrated and accessible.
func RunListRevocations(
	ctx context.Context,
	revocationUseCase authUseCase.RevocationUseCase,
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

	logger.Info("listing revocations",
		slog.Int("offset", offset),
		slog.Int("limit", limit),
	)

	revocations, err := revocationUseCase.List(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list revocations: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputRevocationListJSON(revocations, writer)
	} else {
		outputRevocationListText(revocations, writer)
	}

	return nil
}

// outputRevocationListText outputs the records in human-readable text format.
func outputRevocationListText(revocations []*authDomain.Revocation, writer io.Writer) {
	if len(revocations) == 0 {
		_, _ = fmt.Fprintln(writer, "No revocations found")
		return
	}

	_, _ = fmt.Fprintf(writer, "Found %d revocation(s)\n\n", len(revocations))
	for _, revocation := range revocations {
		_, _ = fmt.Fprintf(writer, "ID: %s\n", revocation.ID.String())
		_, _ = fmt.Fprintf(writer, "  Subject: %s\n", revocation.Subject)
		_, _ = fmt.Fprintf(writer, "  Reason: %s\n", revocation.Reason)
		_, _ = fmt.Fprintf(writer, "  Revoked at: %s\n", revocation.RevokedAt.Format(time.RFC3339))
		_, _ = fmt.Fprintf(writer, "  Expires at: %s\n", revocation.ExpiresAt.Format(time.RFC3339))
	}
}

// outputRevocationListJSON outputs the records in JSON format for machine
// consumption.
func outputRevocationListJSON(revocations []*authDomain.Revocation, writer io.Writer) {
	items := make([]map[string]string, 0, len(revocations))
	for _, revocation := range revocations {
		items = append(items, map[string]string{
			"revocation_id": revocation.ID.String(),
			"subject":       revocation.Subject,
			"reason":        revocation.Reason,
			"revoked_at":    revocation.RevokedAt.Format(time.RFC3339),
			"expires_at":    revocation.ExpiresAt.Format(time.RFC3339),
		})
	}

	result := map[string]interface{}{
		"count": len(revocations),
		"data":  items,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}

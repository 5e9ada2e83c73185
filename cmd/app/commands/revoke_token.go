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

// RunRevokeToken blacklists a bearer token and records the audit entry.
// The token only needs to be well formed; expired or otherwise invalid tokens
// can still be blacklisted. Outputs the audit record in either text or JSON
// format. The raw token is never logged or printed.
//
// Requirements: Database must be migrated and accessible.
func RunRevokeToken(
	ctx context.Context,
	revocationUseCase authUseCase.RevocationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	token string,
	subject string,
	reason string,
	format string,
) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}

	logger.Info("revoking token",
		slog.String("subject", subject),
		slog.String("reason", reason),
	)

	revocation, err := revocationUseCase.Revoke(ctx, &authDomain.RevokeTokenInput{
		Token:   token,
		Subject: subject,
		Reason:  reason,
	})
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputRevocationJSON(revocation, writer)
	} else {
		outputRevocationText(revocation, writer)
	}

	logger.Info("token revoked",
		slog.String("revocation_id", revocation.ID.String()),
		slog.String("subject", revocation.Subject),
	)

	return nil
}

// outputRevocationText outputs the audit record in human-readable text format.
func outputRevocationText(revocation *authDomain.Revocation, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "Token revoked successfully!")
	_, _ = fmt.Fprintf(writer, "Revocation ID: %s\n", revocation.ID.String())
	if revocation.Subject != "" {
		_, _ = fmt.Fprintf(writer, "Subject: %s\n", revocation.Subject)
	}
	if revocation.Reason != "" {
		_, _ = fmt.Fprintf(writer, "Reason: %s\n", revocation.Reason)
	}
	_, _ = fmt.Fprintf(writer, "Expires at: %s\n", revocation.ExpiresAt.Format(time.RFC3339))
}

// outputRevocationJSON outputs the audit record in JSON format for machine
// consumption.
func outputRevocationJSON(revocation *authDomain.Revocation, writer io.Writer) {
	result := map[string]string{
		"revocation_id": revocation.ID.String(),
		"subject":       revocation.Subject,
		"reason":        revocation.Reason,
		"revoked_at":    revocation.RevokedAt.Format(time.RFC3339),
		"expires_at":    revocation.ExpiresAt.Format(time.RFC3339),
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}

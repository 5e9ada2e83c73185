package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	authUseCase "github.com/email-management-platform/backend/gateway/internal/auth/usecase"
)

// RunCleanRevocations prunes revocation audit records past their retention
// window. The retention window comes from gateway configuration; blacklist
// entries expire on their own, this only trims the audit trail behind them.
//
// Requirements: Database must be migrated and accessible.
func RunCleanRevocations(
	ctx context.Context,
	revocationUseCase authUseCase.RevocationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("cleaning expired revocations")

	count, err := revocationUseCase.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired revocations: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputCleanRevocationsJSON(count, writer)
	} else {
		outputCleanRevocationsText(count, writer)
	}

	logger.Info("cleanup completed", slog.Int64("count", count))

	return nil
}

// outputCleanRevocationsText outputs the result in human-readable text format.
func outputCleanRevocationsText(count int64, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Successfully deleted %d expired revocation(s)\n", count)
}

// outputCleanRevocationsJSON outputs the result in JSON format for machine
// consumption.
func outputCleanRevocationsJSON(count int64, writer io.Writer) {
	result := map[string]interface{}{
		"count": count,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}

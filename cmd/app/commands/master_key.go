package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/pandorica/internal/crypto/usecase"
)

type masterKeyOutput struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsActive  bool      `json:"is_active"`
}

// RunRotateMasterKey runs the rotation protocol once: a missing or expired master key is
// replaced, an unexpired one is kept. The resulting active key is printed.
func RunRotateMasterKey(
	ctx context.Context,
	keyManagement cryptoUseCase.KeyManagementUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if err := keyManagement.Rotate(ctx); err != nil {
		return fmt.Errorf("failed to rotate master key: %w", err)
	}

	status, err := keyManagement.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read master key status: %w", err)
	}

	logger.Info("master key rotation checked",
		slog.String("master_key_id", status.ID.String()),
		slog.Time("expires_at", status.ExpiresAt),
	)
	return writeMasterKeyStatus(writer, status, format)
}

// RunMasterKeyStatus prints the active master key metadata. It never unwraps the key.
func RunMasterKeyStatus(
	ctx context.Context,
	keyManagement cryptoUseCase.KeyManagementUseCase,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	status, err := keyManagement.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read master key status: %w", err)
	}
	return writeMasterKeyStatus(writer, status, format)
}

func writeMasterKeyStatus(writer io.Writer, status *cryptoDomain.MasterKeyStatus, format string) error {
	if format == FormatJSON {
		return writeJSON(writer, masterKeyOutput{
			ID:        status.ID.String(),
			CreatedAt: status.CreatedAt,
			ExpiresAt: status.ExpiresAt,
			IsActive:  status.IsActive,
		})
	}

	_, _ = fmt.Fprintf(writer, "Master key:  %s\n", status.ID)
	_, _ = fmt.Fprintf(writer, "Created at:  %s\n", status.CreatedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(writer, "Expires at:  %s\n", status.ExpiresAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(writer, "Active:      %t\n", status.IsActive)
	return nil
}

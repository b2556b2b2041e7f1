package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	cryptoUseCase "github.com/allisson/pandorica/internal/crypto/usecase"
)

// RunEncryptFile encrypts inputPath into outputPath under a fresh DEK. The serialized
// wrapped DEK is written base64-encoded to dekOutputPath. Neither output is left behind
// when encryption fails.
func RunEncryptFile(
	ctx context.Context,
	envelope cryptoUseCase.EnvelopeUseCase,
	logger *slog.Logger,
	inputPath, outputPath, dekOutputPath string,
) error {
	if inputPath == "" || outputPath == "" || dekOutputPath == "" {
		return fmt.Errorf("--input, --output and --dek-output are required")
	}

	src, err := os.Open(inputPath) //nolint:gosec // operator supplied path
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = src.Close() }()

	out, err := newPendingFile(outputPath)
	if err != nil {
		return err
	}
	defer out.discard()

	var dekWritten bool
	err = envelope.EncryptStream(ctx, src, func(dek []byte) (io.Writer, error) {
		encoded := base64.StdEncoding.EncodeToString(dek) + "\n"
		if err := os.WriteFile(dekOutputPath, []byte(encoded), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write dek: %w", err)
		}
		dekWritten = true
		return out, nil
	})
	if err == nil {
		err = out.commit()
	}
	if err != nil {
		if dekWritten {
			_ = os.Remove(dekOutputPath)
		}
		return fmt.Errorf("failed to encrypt file: %w", err)
	}

	logger.Info("file encrypted",
		slog.String("input", inputPath),
		slog.String("output", outputPath),
		slog.String("dek_output", dekOutputPath),
	)
	return nil
}

// RunDecryptFile decrypts inputPath with the DEK stored in dekInputPath. outputPath only
// appears once the whole stream has been authenticated.
func RunDecryptFile(
	ctx context.Context,
	envelope cryptoUseCase.EnvelopeUseCase,
	logger *slog.Logger,
	inputPath, outputPath, dekInputPath string,
) error {
	if inputPath == "" || outputPath == "" || dekInputPath == "" {
		return fmt.Errorf("--input, --output and --dek-input are required")
	}

	encoded, err := os.ReadFile(dekInputPath) //nolint:gosec // operator supplied path
	if err != nil {
		return fmt.Errorf("failed to read dek: %w", err)
	}
	dek, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(encoded)))
	if err != nil {
		return fmt.Errorf("dek file is not valid base64: %w", err)
	}

	src, err := os.Open(inputPath) //nolint:gosec // operator supplied path
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = src.Close() }()

	out, err := newPendingFile(outputPath)
	if err != nil {
		return err
	}
	defer out.discard()

	if err := envelope.DecryptStream(ctx, dek, src, out); err != nil {
		return fmt.Errorf("failed to decrypt file: %w", err)
	}
	if err := out.commit(); err != nil {
		return err
	}

	logger.Info("file decrypted", slog.String("input", inputPath), slog.String("output", outputPath))
	return nil
}

// pendingFile is a temporary file renamed onto its target by commit.
type pendingFile struct {
	*os.File
	target    string
	committed bool
}

func newPendingFile(target string) (*pendingFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return &pendingFile{File: tmp, target: target}, nil
}

func (p *pendingFile) commit() error {
	if err := p.Sync(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := p.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(p.Name(), p.target); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	p.committed = true
	return nil
}

func (p *pendingFile) discard() {
	if p.committed {
		return
	}
	_ = p.Close()
	_ = os.Remove(p.Name())
}

package commands

import (
	"encoding/base64"
	"fmt"
	"io"

	cryptoService "github.com/allisson/pandorica/internal/crypto/service"
)

// RunDeriveKey derives length bytes from input and a base64 salt and prints the key
// base64-encoded.
func RunDeriveKey(deriver cryptoService.KeyDeriver, writer io.Writer, input, salt string, length int, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if input == "" {
		return fmt.Errorf("input is required")
	}

	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return fmt.Errorf("salt is not valid base64: %w", err)
	}

	key, err := deriver.Derive([]byte(input), saltBytes, length)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(key)
	if format == FormatJSON {
		return writeJSON(writer, map[string]string{"key": encoded})
	}
	_, _ = fmt.Fprintln(writer, encoded)
	return nil
}

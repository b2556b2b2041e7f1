package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	cryptoService "github.com/allisson/pandorica/internal/crypto/service"
)

// ErrPasswordMismatch is returned by RunVerifyPassword so the exit status reflects the
// outcome.
var ErrPasswordMismatch = errors.New("password does not match hash")

// readPassword returns password, or the first line of the reader when password is empty.
// Reading from stdin keeps passwords out of shell history.
func readPassword(password string, reader io.Reader) ([]byte, error) {
	if password != "" {
		return []byte(password), nil
	}

	line, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, fmt.Errorf("password is required")
	}
	return []byte(line), nil
}

// RunHashPassword prints the encoded hash of a password.
func RunHashPassword(hasher cryptoService.PasswordHasher, streams IOTuple, password, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	secret, err := readPassword(password, streams.Reader)
	if err != nil {
		return err
	}

	hash, err := hasher.Hash(secret)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if format == FormatJSON {
		return writeJSON(streams.Writer, map[string]string{"hash": hash})
	}
	_, _ = fmt.Fprintln(streams.Writer, hash)
	return nil
}

// RunVerifyPassword checks a password against an encoded hash. A mismatch prints the
// result and returns ErrPasswordMismatch.
func RunVerifyPassword(hasher cryptoService.PasswordHasher, streams IOTuple, password, hash, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if strings.TrimSpace(hash) == "" {
		return fmt.Errorf("hash is required")
	}

	secret, err := readPassword(password, streams.Reader)
	if err != nil {
		return err
	}

	valid, err := hasher.Verify(secret, hash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}

	if format == FormatJSON {
		if err := writeJSON(streams.Writer, map[string]bool{"valid": valid}); err != nil {
			return err
		}
	} else if valid {
		_, _ = fmt.Fprintln(streams.Writer, "Password matches")
	} else {
		_, _ = fmt.Fprintln(streams.Writer, "Password does not match")
	}

	if !valid {
		return ErrPasswordMismatch
	}
	return nil
}

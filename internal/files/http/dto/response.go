// Package dto provides data transfer objects for the files HTTP API.
package dto

import (
	"time"

	filesDomain "github.com/allisson/pandorica/internal/files/domain"
)

// FileResponse describes a stored file. Size is the plaintext size.
type FileResponse struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Algorithm   string    `json:"algorithm"`
	ModTime     time.Time `json:"modified_at"`
}

// MapFileToResponse converts a domain file to its API form.
func MapFileToResponse(file *filesDomain.File) FileResponse {
	return FileResponse{
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        file.Size,
		Algorithm:   string(file.Algorithm),
		ModTime:     file.ModTime,
	}
}

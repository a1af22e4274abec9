// Package storage abstracts file persistence for promoter photos and
// document scans. Two backends: local disk for development and
// Cloudflare R2 (S3-compatible) for production.
package storage

import (
	"context"
	"io"
)

// FileInfo describes a stored file.
type FileInfo struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// Store is the persistence interface handlers depend on.
type Store interface {
	// Save persists the file at the given path and returns its metadata.
	Save(ctx context.Context, path string, file io.Reader, contentType string) (*FileInfo, error)
	// Delete removes a stored file.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL for a stored file.
	URL(path string) string
}

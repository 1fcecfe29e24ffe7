// Package storage archives uploaded files in S3-compatible object storage.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL is a time-limited download link for an archived object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Archiver stores import spreadsheets and assistant voice notes.
type Archiver interface {
	// Archive writes reader under folder and returns the generated key.
	Archive(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// DownloadURL presigns a GET for an archived object.
	DownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)

	EnsureBucketExists(ctx context.Context, bucket string) error

	// Validate checks the content type against kind and the size limit.
	Validate(kind Kind, contentType string, sizeBytes int64) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}

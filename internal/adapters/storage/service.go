// Package storage stores lead documents in an S3-compatible bucket.
package storage

import (
	"errors"
	"time"
)

var (
	ErrContentTypeNotAllowed = errors.New("content type is not allowed")
	ErrFileTooLarge          = errors.New("file exceeds the maximum allowed size")
	ErrObjectNotFound        = errors.New("object not found")
)

// PresignedURL contains the URL and metadata for a presigned upload/download operation.
type PresignedURL struct {
	URL       string
	FileKey   string
	ExpiresAt time.Time
}

// ObjectInfo is what the bucket knows about an uploaded object.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketLeadDocuments() string
	IsMinIOEnabled() bool
}

package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// AllowedContentTypes defines the allowed MIME types for lead documents.
var AllowedContentTypes = toSet(
	"image/jpeg",
	"image/png",
	"image/webp",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain",
	"text/csv",
)

func toSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// NormalizeContentType drops parameters such as charset.
func NormalizeContentType(contentType string) string {
	normalized := strings.Split(contentType, ";")[0]
	return strings.TrimSpace(strings.ToLower(normalized))
}

// ValidateUpload checks content type and size against the limits.
func ValidateUpload(contentType string, sizeBytes, maxSize int64) error {
	if !AllowedContentTypes[NormalizeContentType(contentType)] {
		return fmt.Errorf("%w: %q", ErrContentTypeNotAllowed, contentType)
	}
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if maxSize > 0 && sizeBytes > maxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, sizeBytes, maxSize)
	}
	return nil
}

// BuildFileKey places fileName under folder with a random suffix so uploads
// never overwrite each other.
func BuildFileKey(folder, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	unique := fmt.Sprintf("%s_%s%s", stem, uuid.New().String()[:8], ext)
	return path.Join(folder, unique)
}

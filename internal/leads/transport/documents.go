package transport

import (
	"time"

	"github.com/google/uuid"
)

type PresignDocumentRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=120"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

type PresignDocumentResponse struct {
	UploadURL string    `json:"uploadUrl"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterDocumentRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	FileKey     string `json:"fileKey" validate:"required,max=500"`
	ContentType string `json:"contentType" validate:"required,max=120"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	LeadID      uuid.UUID  `json:"leadId"`
	Name        string     `json:"name"`
	FileKey     string     `json:"fileKey"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	UploadedBy  *uuid.UUID `json:"uploadedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
}

type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

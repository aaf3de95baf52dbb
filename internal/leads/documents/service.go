// Package documents attaches uploaded files to leads. Files go to object
// storage through presigned URLs; only references are kept in Postgres.
package documents

import (
	"context"
	"errors"
	"path"
	"strings"

	"salesflow_backend/internal/adapters/storage"
	"salesflow_backend/internal/leads/management"
	"salesflow_backend/internal/leads/repository"
	"salesflow_backend/internal/leads/transport"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the documents service.
type Repository interface {
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (repository.Lead, error)
	Touch(ctx context.Context, id, organizationID uuid.UUID, activity string) error
	CreateDocument(ctx context.Context, params repository.CreateDocumentParams) (repository.Document, error)
	ListDocuments(ctx context.Context, leadID, organizationID uuid.UUID) ([]repository.Document, error)
	GetDocument(ctx context.Context, id, leadID, organizationID uuid.UUID) (repository.Document, error)
}

// ObjectStore is the bucket holding document contents.
type ObjectStore interface {
	PresignUpload(ctx context.Context, folder, fileName, contentType string, sizeBytes int64) (storage.PresignedURL, error)
	PresignDownload(ctx context.Context, fileKey, fileName string) (storage.PresignedURL, error)
	Stat(ctx context.Context, fileKey string) (storage.ObjectInfo, error)
}

type Service struct {
	repo  Repository
	store ObjectStore
}

// New creates the documents service. store may be nil when object storage
// is not configured; uploads and downloads then report unavailable.
func New(repo Repository, store ObjectStore) *Service {
	return &Service{repo: repo, store: store}
}

// Presign returns an upload URL scoped to the lead's folder.
func (s *Service) Presign(ctx context.Context, organizationID, leadID uuid.UUID, req transport.PresignDocumentRequest) (transport.PresignDocumentResponse, error) {
	if err := s.ready(); err != nil {
		return transport.PresignDocumentResponse{}, err
	}
	if err := s.ensureLead(ctx, organizationID, leadID); err != nil {
		return transport.PresignDocumentResponse{}, err
	}

	presigned, err := s.store.PresignUpload(ctx, folder(organizationID, leadID), sanitize.Text(req.Name), req.ContentType, req.SizeBytes)
	if err != nil {
		return transport.PresignDocumentResponse{}, uploadError(err)
	}
	return transport.PresignDocumentResponse{
		UploadURL: presigned.URL,
		FileKey:   presigned.FileKey,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// Register records an uploaded object on the lead once it exists in the bucket.
func (s *Service) Register(ctx context.Context, organizationID, leadID, actorID uuid.UUID, req transport.RegisterDocumentRequest) (transport.DocumentResponse, error) {
	if err := s.ready(); err != nil {
		return transport.DocumentResponse{}, err
	}
	if !strings.HasPrefix(req.FileKey, folder(organizationID, leadID)+"/") {
		return transport.DocumentResponse{}, apperr.Validation("file key does not belong to this lead")
	}
	if err := s.ensureLead(ctx, organizationID, leadID); err != nil {
		return transport.DocumentResponse{}, err
	}

	info, err := s.store.Stat(ctx, req.FileKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return transport.DocumentResponse{}, apperr.Validation("file has not been uploaded")
	}
	if err != nil {
		return transport.DocumentResponse{}, apperr.Persistence("inspect upload", err)
	}
	size := req.SizeBytes
	if info.Size > 0 {
		size = info.Size
	}

	doc, err := s.repo.CreateDocument(ctx, repository.CreateDocumentParams{
		OrganizationID: organizationID,
		LeadID:         leadID,
		Name:           sanitize.Text(req.Name),
		FileKey:        req.FileKey,
		ContentType:    storage.NormalizeContentType(req.ContentType),
		SizeBytes:      size,
		UploadedBy:     &actorID,
	})
	if err != nil {
		return transport.DocumentResponse{}, apperr.Persistence("create document", err)
	}
	if err := s.repo.Touch(ctx, leadID, organizationID, "Document added"); err != nil {
		return transport.DocumentResponse{}, apperr.Persistence("touch lead", err)
	}
	return management.ToDocumentResponse(doc), nil
}

func (s *Service) List(ctx context.Context, organizationID, leadID uuid.UUID) (transport.DocumentListResponse, error) {
	if err := s.ensureLead(ctx, organizationID, leadID); err != nil {
		return transport.DocumentListResponse{}, err
	}
	docs, err := s.repo.ListDocuments(ctx, leadID, organizationID)
	if err != nil {
		return transport.DocumentListResponse{}, apperr.Persistence("list documents", err)
	}
	items := make([]transport.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, management.ToDocumentResponse(d))
	}
	return transport.DocumentListResponse{Items: items}, nil
}

// Download returns a short-lived URL for a document.
func (s *Service) Download(ctx context.Context, organizationID, leadID, documentID uuid.UUID) (transport.DownloadResponse, error) {
	if err := s.ready(); err != nil {
		return transport.DownloadResponse{}, err
	}
	doc, err := s.repo.GetDocument(ctx, documentID, leadID, organizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.DownloadResponse{}, apperr.NotFound("document not found")
	}
	if err != nil {
		return transport.DownloadResponse{}, apperr.Persistence("load document", err)
	}

	presigned, err := s.store.PresignDownload(ctx, doc.FileKey, doc.Name)
	if err != nil {
		return transport.DownloadResponse{}, apperr.Unavailable("document storage unavailable", err)
	}
	return transport.DownloadResponse{URL: presigned.URL, ExpiresAt: presigned.ExpiresAt}, nil
}

func (s *Service) ready() error {
	if s.store == nil {
		return apperr.Unavailable("document storage is not configured", nil)
	}
	return nil
}

func (s *Service) ensureLead(ctx context.Context, organizationID, leadID uuid.UUID) error {
	_, err := s.repo.GetByID(ctx, leadID, organizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	if err != nil {
		return apperr.Persistence("load lead", err)
	}
	return nil
}

func folder(organizationID, leadID uuid.UUID) string {
	return path.Join(organizationID.String(), leadID.String())
}

func uploadError(err error) error {
	if errors.Is(err, storage.ErrContentTypeNotAllowed) || errors.Is(err, storage.ErrFileTooLarge) {
		return apperr.Validation(err.Error())
	}
	return apperr.Unavailable("document storage unavailable", err)
}

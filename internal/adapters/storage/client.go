package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration time for presigned URLs.
const PresignedURLTTL = 15 * time.Minute

// MinIOService keeps lead documents in one bucket.
type MinIOService struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
	now         func() time.Time
}

// NewMinIOService creates a new MinIO storage service.
func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{
		client:      client,
		bucket:      cfg.GetMinioBucketLeadDocuments(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
		now:         time.Now,
	}, nil
}

// EnsureBucketExists creates the documents bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// PresignUpload validates the file and returns a PUT URL under folder.
func (s *MinIOService) PresignUpload(ctx context.Context, folder, fileName, contentType string, sizeBytes int64) (PresignedURL, error) {
	if err := ValidateUpload(contentType, sizeBytes, s.maxFileSize); err != nil {
		return PresignedURL{}, err
	}

	fileKey := BuildFileKey(folder, fileName)
	expiresAt := s.now().Add(PresignedURLTTL)
	presignedURL, err := s.client.PresignedPutObject(ctx, s.bucket, fileKey, PresignedURLTTL)
	if err != nil {
		return PresignedURL{}, fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}

	return PresignedURL{URL: presignedURL.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// PresignDownload returns a GET URL that downloads the object as fileName.
func (s *MinIOService) PresignDownload(ctx context.Context, fileKey, fileName string) (PresignedURL, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))

	expiresAt := s.now().Add(PresignedURLTTL)
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PresignedURLTTL, params)
	if err != nil {
		return PresignedURL{}, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return PresignedURL{URL: presignedURL.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// Stat reports the stored size and type of an uploaded object.
func (s *MinIOService) Stat(ctx context.Context, fileKey string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, fileKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, fmt.Errorf("failed to stat object %s: %w", fileKey, err)
	}
	return ObjectInfo{Size: info.Size, ContentType: info.ContentType}, nil
}

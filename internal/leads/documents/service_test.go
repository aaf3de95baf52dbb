package documents

import (
	"context"
	"fmt"
	"testing"
	"time"

	"salesflow_backend/internal/adapters/storage"
	"salesflow_backend/internal/leads/repository"
	"salesflow_backend/internal/leads/transport"
	"salesflow_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	lead repository.Lead
	docs []repository.Document
}

func (f *fakeRepo) GetByID(_ context.Context, id, org uuid.UUID) (repository.Lead, error) {
	if id != f.lead.ID || org != f.lead.OrganizationID {
		return repository.Lead{}, repository.ErrNotFound
	}
	return f.lead, nil
}

func (f *fakeRepo) Touch(context.Context, uuid.UUID, uuid.UUID, string) error { return nil }

func (f *fakeRepo) CreateDocument(_ context.Context, p repository.CreateDocumentParams) (repository.Document, error) {
	d := repository.Document{ID: uuid.New(), LeadID: p.LeadID, Name: p.Name, FileKey: p.FileKey, ContentType: p.ContentType, SizeBytes: p.SizeBytes}
	f.docs = append(f.docs, d)
	return d, nil
}

func (f *fakeRepo) ListDocuments(context.Context, uuid.UUID, uuid.UUID) ([]repository.Document, error) {
	return f.docs, nil
}

func (f *fakeRepo) GetDocument(_ context.Context, id, _, _ uuid.UUID) (repository.Document, error) {
	for _, d := range f.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return repository.Document{}, repository.ErrNotFound
}

type fakeStore struct {
	objects map[string]storage.ObjectInfo
}

func (f *fakeStore) PresignUpload(_ context.Context, folder, fileName, contentType string, size int64) (storage.PresignedURL, error) {
	if err := storage.ValidateUpload(contentType, size, 1024); err != nil {
		return storage.PresignedURL{}, err
	}
	key := storage.BuildFileKey(folder, fileName)
	return storage.PresignedURL{URL: "https://bucket/" + key, FileKey: key, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (f *fakeStore) PresignDownload(_ context.Context, key, name string) (storage.PresignedURL, error) {
	return storage.PresignedURL{URL: fmt.Sprintf("https://bucket/%s?name=%s", key, name), FileKey: key}, nil
}

func (f *fakeStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	info, ok := f.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return info, nil
}

func setup() (*Service, *fakeRepo, *fakeStore) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New(), OrganizationID: uuid.New()}}
	store := &fakeStore{objects: map[string]storage.ObjectInfo{}}
	return New(repo, store), repo, store
}

func TestPresignAndRegister(t *testing.T) {
	svc, repo, store := setup()
	ctx := context.Background()
	org, lead := repo.lead.OrganizationID, repo.lead.ID

	presigned, err := svc.Presign(ctx, org, lead, transport.PresignDocumentRequest{Name: "offer.pdf", ContentType: "application/pdf", SizeBytes: 512})
	require.NoError(t, err)
	assert.Contains(t, presigned.FileKey, org.String()+"/"+lead.String()+"/offer_")

	_, err = svc.Register(ctx, org, lead, uuid.New(), transport.RegisterDocumentRequest{Name: "offer.pdf", FileKey: presigned.FileKey, ContentType: "application/pdf", SizeBytes: 512})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "registering before upload must fail")

	store.objects[presigned.FileKey] = storage.ObjectInfo{Size: 500, ContentType: "application/pdf"}
	doc, err := svc.Register(ctx, org, lead, uuid.New(), transport.RegisterDocumentRequest{Name: "offer.pdf", FileKey: presigned.FileKey, ContentType: "application/pdf", SizeBytes: 512})
	require.NoError(t, err)
	assert.Equal(t, int64(500), doc.SizeBytes)

	dl, err := svc.Download(ctx, org, lead, doc.ID)
	require.NoError(t, err)
	assert.Contains(t, dl.URL, presigned.FileKey)
}

func TestRegisterRejectsForeignFileKey(t *testing.T) {
	svc, repo, _ := setup()

	_, err := svc.Register(context.Background(), repo.lead.OrganizationID, repo.lead.ID, uuid.New(), transport.RegisterDocumentRequest{
		Name: "x.pdf", FileKey: uuid.NewString() + "/" + uuid.NewString() + "/x.pdf", ContentType: "application/pdf", SizeBytes: 1,
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPresignRejectsDisallowedType(t *testing.T) {
	svc, repo, _ := setup()

	_, err := svc.Presign(context.Background(), repo.lead.OrganizationID, repo.lead.ID, transport.PresignDocumentRequest{Name: "run.exe", ContentType: "application/x-msdownload", SizeBytes: 10})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestStorageNotConfigured(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New(), OrganizationID: uuid.New()}}
	svc := New(repo, nil)

	_, err := svc.Presign(context.Background(), repo.lead.OrganizationID, repo.lead.ID, transport.PresignDocumentRequest{Name: "a.pdf", ContentType: "application/pdf", SizeBytes: 1})
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))

	list, err := svc.List(context.Background(), repo.lead.OrganizationID, repo.lead.ID)
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

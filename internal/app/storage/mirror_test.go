package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oasip/internal/app/api"
	"oasip/internal/app/tokenstore"
	"oasip/internal/pkg/errs"
	"oasip/internal/testutil/fakeapi"
)

type memStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	uploads   int
	uploadErr error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStorage) Upload(_ context.Context, key string, body io.Reader, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	m.uploads++
	return nil
}

func (m *memStorage) PresignDownload(_ context.Context, key string, d time.Duration) (string, error) {
	return "https://bucket.test/" + key + "?expires=" + d.String(), nil
}

func (m *memStorage) Stat(_ context.Context, key string) (*ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return &ObjectInfo{ContentType: m.types[key], ContentLength: int64(len(data))}, nil
}

func newLoggedInClient(t *testing.T, srv *fakeapi.Server) *api.Client {
	t.Helper()
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), srv.AccessToken(t, fakeapi.StudentEmail)))

	c, err := api.New(api.Config{BaseURL: srv.URL}, store)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestMirror_UploadsOnce(t *testing.T) {
	srv := fakeapi.New(t)
	c := newLoggedInClient(t, srv)
	id := srv.AddFile("agenda.pdf", "application/pdf", []byte("%PDF-1.4 agenda"))
	store := newMemStorage()

	first, err := Mirror(context.Background(), c, store, id)
	require.NoError(t, err)
	assert.True(t, first.Uploaded)
	assert.Equal(t, "attachments/"+id+"/agenda.pdf", first.Key)
	assert.Equal(t, "agenda.pdf", first.FileName)
	assert.Contains(t, first.URL, first.Key)
	assert.Equal(t, []byte("%PDF-1.4 agenda"), store.objects[first.Key])
	assert.Equal(t, "application/pdf", store.types[first.Key])

	second, err := Mirror(context.Background(), c, store, id)
	require.NoError(t, err)
	assert.False(t, second.Uploaded)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, 1, store.uploads)
}

func TestMirror_MissingAttachment(t *testing.T) {
	srv := fakeapi.New(t)
	c := newLoggedInClient(t, srv)
	store := newMemStorage()

	_, err := Mirror(context.Background(), c, store, uuid.NewString())
	assert.True(t, errs.Is(err, errs.ErrNotFound))
	assert.Zero(t, store.uploads)
}

func TestMirror_UploadFailure(t *testing.T) {
	srv := fakeapi.New(t)
	c := newLoggedInClient(t, srv)
	id := srv.AddFile("a.txt", "text/plain", []byte("a"))
	store := newMemStorage()
	store.uploadErr = errs.Wrap(errs.ErrFileStorageFailed, errors.New("bucket offline"))

	_, err := Mirror(context.Background(), c, store, id)
	assert.True(t, errs.Is(err, errs.ErrFileStorageFailed))
}

func TestMirrorKey(t *testing.T) {
	assert.Equal(t, "attachments/abc/report (1).pdf", MirrorKey("abc", "report (1).pdf"))
	assert.NotEqual(t, MirrorKey("abc", "x"), MirrorKey("abd", "x"))
}

func TestNewStorageService_RequiresBucket(t *testing.T) {
	_, err := NewStorageService(context.Background(), ServiceConfig{})
	assert.True(t, errs.Is(err, errs.ErrInvalidParams))
}

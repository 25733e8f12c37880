package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeS3 accepts path-style PUT and GET object requests
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeStorage(t *testing.T) (*S3ObjectStorage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3ObjectStorage(context.Background(), config.StorageConfig{
		Endpoint:     srv.URL,
		Bucket:       "archive",
		AccessKey:    "key",
		SecretKey:    "secret",
		UsePathStyle: true,
		Prefix:       "cashbox-sessions/",
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return s, fake
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	_, err := NewS3ObjectStorage(context.Background(), config.StorageConfig{AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3ObjectStorage(context.Background(), config.StorageConfig{Bucket: "b"})
	assert.ErrorContains(t, err, "access key")
}

func TestS3ObjectStorage_Key(t *testing.T) {
	s, _ := newFakeStorage(t)
	assert.Equal(t, "cashbox-sessions/t1/2026/01/s1.json", s.Key("t1", "2026/01", "s1.json"))
}

func TestS3ObjectStorage_PutAndGetJSON(t *testing.T) {
	s, fake := newFakeStorage(t)
	ctx := context.Background()

	doc := map[string]any{"session_id": "s-1", "discrepancy": "-300.0000"}
	require.NoError(t, s.PutJSON(ctx, "t1/s-1.json", doc))

	stored, ok := fake.objects["/archive/cashbox-sessions/t1/s-1.json"]
	require.True(t, ok)
	assert.JSONEq(t, `{"session_id":"s-1","discrepancy":"-300.0000"}`, string(stored))
	assert.Equal(t, "application/json", fake.types["/archive/cashbox-sessions/t1/s-1.json"])

	var got map[string]any
	require.NoError(t, s.GetJSON(ctx, "t1/s-1.json", &got))
	assert.Equal(t, "s-1", got["session_id"])
}

func TestS3ObjectStorage_GetMissing(t *testing.T) {
	s, _ := newFakeStorage(t)

	var got map[string]any
	err := s.GetJSON(context.Background(), "nope.json", &got)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// uploadRecorder wraps LocalStorage with a working Upload so the archiver
// flow can be exercised without S3.
type uploadRecorder struct {
	*LocalStorage
	uploadedKey  string
	uploadedBody string
	uploadErr    error
}

func (u *uploadRecorder) Upload(_ context.Context, key string, data io.Reader) (string, error) {
	if u.uploadErr != nil {
		return "", u.uploadErr
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	u.uploadedKey = key
	u.uploadedBody = string(body)
	return "https://archive.example.com/" + key, nil
}

func TestRenderArchiver_Archive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video bytes"))
	}))
	defer server.Close()

	store := &uploadRecorder{LocalStorage: setupTestStorage(t)}
	archiver := NewRenderArchiver(store, server.Client())

	url, err := archiver.Archive(context.Background(), "job-1", server.URL+"/v.mp4")
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	if url != "https://archive.example.com/videos/job-1.mp4" {
		t.Errorf("unexpected archive URL %q", url)
	}
	if store.uploadedKey != "videos/job-1.mp4" {
		t.Errorf("unexpected upload key %q", store.uploadedKey)
	}
	if store.uploadedBody != "video bytes" {
		t.Errorf("unexpected upload body %q", store.uploadedBody)
	}
}

func TestRenderArchiver_Archive_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := &uploadRecorder{LocalStorage: setupTestStorage(t)}
	archiver := NewRenderArchiver(store, server.Client())

	_, err := archiver.Archive(context.Background(), "job-1", server.URL+"/v.mp4")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "status 404") {
		t.Errorf("unexpected error %v", err)
	}
	if store.uploadedKey != "" {
		t.Error("expected no upload after a failed download")
	}
}

func TestRenderArchiver_Archive_UploadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video bytes"))
	}))
	defer server.Close()

	store := &uploadRecorder{LocalStorage: setupTestStorage(t), uploadErr: errors.New("bucket gone")}
	archiver := NewRenderArchiver(store, server.Client())

	_, err := archiver.Archive(context.Background(), "job-1", server.URL+"/v.mp4")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "upload") {
		t.Errorf("unexpected error %v", err)
	}
}

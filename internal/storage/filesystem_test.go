package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreUploadAndSignedURL(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	url, err := store.Upload(context.Background(), "final/prev-1/page_01.jpg", []byte("image-bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "http://localhost:8080/static/final/prev-1/page_01.jpg" {
		t.Fatalf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(store.BasePath(), "final", "prev-1", "page_01.jpg"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(data, []byte("image-bytes")) {
		t.Fatalf("stored bytes mismatch")
	}

	signed, err := store.SignedURL(context.Background(), "final/prev-1/page_01.jpg", 15*time.Minute)
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	if signed != url {
		t.Fatalf("signed url = %q, want the plain public url", signed)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, err := store.Upload(context.Background(), "../outside.jpg", []byte("x"), "image/jpeg"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}

func TestFileStoreDownloadAndStore(t *testing.T) {
	// A tiny JPEG header so content detection sees an image.
	payload := append([]byte{0xff, 0xd8, 0xff, 0xe0}, bytes.Repeat([]byte{0x10}, 32)...)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer upstream.Close()

	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	url, err := store.DownloadAndStore(context.Background(), upstream.URL+"/out.jpg", "final/prev-1/cover.jpg")
	if err != nil {
		t.Fatalf("download and store: %v", err)
	}
	if url != "http://localhost:8080/static/final/prev-1/cover.jpg" {
		t.Fatalf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(store.BasePath(), "final", "prev-1", "cover.jpg"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("stored bytes mismatch")
	}
}

func TestFileStoreDownloadUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, err := store.DownloadAndStore(context.Background(), upstream.URL+"/gone.jpg", "final/x.jpg"); err == nil {
		t.Fatalf("expected upstream error to propagate")
	}
}

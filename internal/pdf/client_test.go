package pdf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerate(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"pdf_url": "https://pdf.test/book.pdf"})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "secret", srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	url, err := client.Generate(context.Background(), Request{
		PreviewID: "prev-1",
		ChildName: "Mia",
		Title:     "Mia and the Enchanted Forest",
		Pages: []Page{
			{Page: 1, ImageURL: "https://storage.test/p1.jpg", StoryText: "once"},
			{Page: 2, ImageURL: "https://storage.test/p2.jpg", StoryText: "upon"},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if url != "https://pdf.test/book.pdf" {
		t.Fatalf("pdf url = %q", url)
	}
	if got.Title != "Mia and the Enchanted Forest" || len(got.Pages) != 2 {
		t.Fatalf("service received %+v", got)
	}
}

func TestGenerateServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "layout engine crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Generate(context.Background(), Request{Pages: []Page{{Page: 1}}}); err == nil {
		t.Fatalf("expected error for 5xx response")
	}
}

func TestGenerateRequiresPages(t *testing.T) {
	client, err := NewClient("http://pdf.local", "", nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Generate(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error for empty page list")
	}
}

func TestGenerateMissingPDFURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Generate(context.Background(), Request{Pages: []Page{{Page: 1}}}); err == nil {
		t.Fatalf("expected error when response lacks pdf_url")
	}
}

// Package pdf is a thin client for the external PDF assembly service. The
// layout engine itself is a black box; only the call contract lives here.
package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Page is one ordered page handed to the assembly service.
type Page struct {
	Page      int    `json:"page"`
	ImageURL  string `json:"image_url"`
	StoryText string `json:"story_text"`
}

// Request describes one full-book assembly.
type Request struct {
	PreviewID string `json:"preview_id"`
	ChildName string `json:"child_name"`
	Title     string `json:"title"`
	CoverURL  string `json:"cover_url,omitempty"`
	Pages     []Page `json:"pages"`
}

// Client calls the PDF assembly HTTP service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a client for the assembly service.
func NewClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("pdf: base url is required")
	}
	if httpClient == nil {
		// Full-book assembly renders ten pages; allow for a slow service.
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}, nil
}

// Generate submits the assembly request and returns the URL of the produced
// PDF.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if len(req.Pages) == 0 {
		return "", errors.New("pdf: at least one page is required")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("pdf: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("pdf: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("pdf: request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("pdf: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("pdf: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded struct {
		PDFURL string `json:"pdf_url"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("pdf: decode response: %w", err)
	}
	if decoded.PDFURL == "" {
		return "", errors.New("pdf: response missing pdf_url")
	}
	return decoded.PDFURL, nil
}

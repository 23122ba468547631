package domain

import "time"

// PreviewStatus enumerates the customer-facing lifecycle of a book preview.
type PreviewStatus string

const (
	PreviewStatusGenerating PreviewStatus = "generating"
	PreviewStatusActive     PreviewStatus = "active"
	PreviewStatusPurchased  PreviewStatus = "purchased"
	PreviewStatusFailed     PreviewStatus = "failed"
	PreviewStatusExpired    PreviewStatus = "expired"
)

// GenerationPhase tracks how much of the book has been produced. It only ever
// advances preview -> generating_full -> complete; failed is terminal.
type GenerationPhase string

const (
	PhasePreview        GenerationPhase = "preview"
	PhaseGeneratingFull GenerationPhase = "generating_full"
	PhaseComplete       GenerationPhase = "complete"
	PhaseFailed         GenerationPhase = "failed"
)

// BookRequest is the immutable input captured when a preview is created.
type BookRequest struct {
	ChildName   string `json:"child_name"`
	ChildAge    int    `json:"child_age"`
	ChildGender string `json:"child_gender"`
	PhotoURL    string `json:"photo_url"`
	Theme       string `json:"theme"`
	Style       string `json:"style"`
	Seed        int    `json:"seed,omitempty"`
}

// PageResult is one successfully generated book page. A failed page is
// represented by its absence from the collection, never by a tombstone.
type PageResult struct {
	Page       int     `json:"page"`
	ImageURL   string  `json:"image_url"`
	SourceURL  string  `json:"source_url,omitempty"`
	PreviewURL string  `json:"preview_url,omitempty"`
	StoryText  string  `json:"story_text"`
	Prompt     string  `json:"prompt,omitempty"`
	LatencyMS  int64   `json:"latency_ms,omitempty"`
	Cost       float64 `json:"cost,omitempty"`
}

// Preview is the aggregate root of one customer's book-in-progress. It owns
// its page collection and the cached face analysis outright.
type Preview struct {
	ID               string
	Request          BookRequest
	AnalyzedFeatures string
	CoverURL         string
	Pages            []PageResult
	Status           PreviewStatus
	Phase            GenerationPhase
	PDFURL           string
	CustomerEmail    string
	NotifyOnComplete bool
	PreviewPageCount int
	TotalPageCount   int
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// HasPage reports whether a page number is already present in the collection.
func (p *Preview) HasPage(num int) bool {
	for _, pg := range p.Pages {
		if pg.Page == num {
			return true
		}
	}
	return false
}

// PageFor returns the page with the given number, if present.
func (p *Preview) PageFor(num int) (PageResult, bool) {
	for _, pg := range p.Pages {
		if pg.Page == num {
			return pg, true
		}
	}
	return PageResult{}, false
}

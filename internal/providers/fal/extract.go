package fal

import (
	"strings"

	"github.com/tidwall/gjson"
)

// The queue API returns the generated image location under several different
// shapes depending on model and API version. Each entry is tried in priority
// order against the raw result payload; the first string hit wins.
var imageURLPaths = []string{
	"images.0.url",
	"images.0",
	"image.url",
	"image",
	"url",
	"data.0.url",
}

// extractImageURL normalizes the result payload into a single image URL.
// It returns "" when no known shape matches.
func extractImageURL(payload []byte) string {
	for _, path := range imageURLPaths {
		v := gjson.GetBytes(payload, path)
		if v.Type == gjson.String {
			if url := strings.TrimSpace(v.String()); url != "" {
				return url
			}
		}
	}
	return ""
}

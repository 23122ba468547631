package stories

import (
	"regexp"
	"strings"
)

// maxChildNameLength bounds the name after sanitization.
const maxChildNameLength = 30

// Only letters, spaces, hyphens, and apostrophes survive; everything else is
// a prompt-injection or markup vector.
var disallowedNameChars = regexp.MustCompile(`[^a-zA-Z\s\-']`)

var multiSpace = regexp.MustCompile(`\s+`)

// SanitizeChildName strips characters that could carry prompt injection or
// markup into generation prompts and PDF output. An empty result falls back
// to "Child".
func SanitizeChildName(name string) string {
	sanitized := disallowedNameChars.ReplaceAllString(name, "")
	sanitized = multiSpace.ReplaceAllString(sanitized, " ")
	sanitized = strings.TrimSpace(sanitized)
	if len(sanitized) > maxChildNameLength {
		sanitized = strings.TrimSpace(sanitized[:maxChildNameLength])
	}
	if sanitized == "" {
		return "Child"
	}
	return sanitized
}

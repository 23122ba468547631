package stories

import (
	"errors"
	"strings"
	"testing"

	"storybook/internal/domain"
)

func TestSanitizeChildName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Mia", "Mia"},
		{"trims whitespace", "  Mia  ", "Mia"},
		{"keeps hyphen and apostrophe", "Anne-Marie O'Brien", "Anne-Marie O'Brien"},
		{"strips digits and symbols", "M1a <script>", "Ma script"},
		{"collapses inner spaces", "Mia   Rose", "Mia Rose"},
		{"empty falls back", "", "Child"},
		{"symbols only falls back", "123!@#", "Child"},
		{"truncates long names", strings.Repeat("a", 50), strings.Repeat("a", 30)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeChildName(tc.in); got != tc.want {
				t.Fatalf("SanitizeChildName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()

	theme, err := r.Get("enchanted_forest")
	if err != nil {
		t.Fatalf("get theme: %v", err)
	}
	if theme.ID != "enchanted_forest" {
		t.Fatalf("theme id = %q", theme.ID)
	}

	if _, err := r.Get("volcano_base"); !errors.Is(err, domain.ErrUnknownTheme) {
		t.Fatalf("err = %v, want ErrUnknownTheme", err)
	}
}

func TestThemesAreComplete(t *testing.T) {
	r := NewRegistry()
	for _, id := range r.IDs() {
		theme, err := r.Get(id)
		if err != nil {
			t.Fatalf("get %q: %v", id, err)
		}
		if theme.CoverPrompt == "" {
			t.Fatalf("theme %q missing cover prompt", id)
		}
		if len(theme.Pages) != 10 {
			t.Fatalf("theme %q has %d pages, want 10", id, len(theme.Pages))
		}
		seen := map[int]bool{}
		for _, p := range theme.Pages {
			if p.Prompt == "" || p.StoryText == "" {
				t.Fatalf("theme %q page %d missing prompt or story text", id, p.Number)
			}
			if seen[p.Number] {
				t.Fatalf("theme %q has duplicate page %d", id, p.Number)
			}
			seen[p.Number] = true
		}
		for n := 1; n <= 10; n++ {
			if !seen[n] {
				t.Fatalf("theme %q missing page %d", id, n)
			}
		}
	}
}

func TestTitleAndStoryPersonalization(t *testing.T) {
	r := NewRegistry()
	theme, err := r.Get("magic_castle")
	if err != nil {
		t.Fatalf("get theme: %v", err)
	}

	title := theme.Title("Mia")
	if !strings.Contains(title, "Mia") {
		t.Fatalf("title %q does not carry the child name", title)
	}
	if strings.Contains(title, "{name}") {
		t.Fatalf("title %q still has the placeholder", title)
	}

	text := theme.StoryTextFor(1, "Mia")
	if text == "" {
		t.Fatalf("story text for page 1 is empty")
	}
	if strings.Contains(text, "{name}") {
		t.Fatalf("story text %q still has the placeholder", text)
	}

	if got := theme.StoryTextFor(99, "Mia"); got != "" {
		t.Fatalf("story text for unknown page = %q, want empty", got)
	}
}

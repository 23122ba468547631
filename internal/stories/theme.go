// Package stories holds the story theme templates: per-page scene prompts
// and narrative text with a {name} placeholder substituted at generation
// time. Prompt wording is domain content, not engineering; the registry
// contract is what the pipeline depends on.
package stories

import (
	"fmt"
	"sort"
	"strings"

	"storybook/internal/domain"
)

// Page is one page template of a theme.
type Page struct {
	Number    int
	Scene     string
	Prompt    string
	StoryText string
}

// Theme is a complete story template.
type Theme struct {
	ID            string
	TitleTemplate string
	Description   string
	CoverPrompt   string
	Pages         []Page
}

// Title renders the personalized book title.
func (t *Theme) Title(childName string) string {
	if t.TitleTemplate == "" {
		return fmt.Sprintf("%s's Adventure", childName)
	}
	return strings.ReplaceAll(t.TitleTemplate, "{name}", childName)
}

// StoryTextFor renders the personalized narrative for a page number.
func (t *Theme) StoryTextFor(pageNum int, childName string) string {
	for _, p := range t.Pages {
		if p.Number == pageNum {
			return strings.ReplaceAll(p.StoryText, "{name}", childName)
		}
	}
	return ""
}

// Registry resolves theme ids to templates.
type Registry struct {
	themes map[string]*Theme
}

// NewRegistry builds the registry with all shipped themes.
func NewRegistry() *Registry {
	r := &Registry{themes: make(map[string]*Theme)}
	r.register(enchantedForestTheme)
	r.register(magicCastleTheme)
	return r
}

func (r *Registry) register(t *Theme) {
	r.themes[t.ID] = t
}

// Get resolves a theme by id.
func (r *Registry) Get(id string) (*Theme, error) {
	t, ok := r.themes[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTheme, id)
	}
	return t, nil
}

// IDs lists the available theme ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.themes))
	for id := range r.themes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

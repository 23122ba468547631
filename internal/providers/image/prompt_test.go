package image

import (
	"strings"
	"testing"
)

func TestBuildLayeredPrompt(t *testing.T) {
	got := BuildLayeredPrompt("{name} rides a deer through the glade", "Mia", "a cheerful toddler with curly brown hair")

	if strings.Contains(got, "{name}") {
		t.Fatalf("placeholder not substituted:\n%s", got)
	}
	if !strings.Contains(got, "Subject: The child named Mia.") {
		t.Fatalf("subject layer missing:\n%s", got)
	}
	if !strings.Contains(got, "Appearance: a cheerful toddler with curly brown hair.") {
		t.Fatalf("appearance layer missing:\n%s", got)
	}
	if !strings.Contains(got, "Scene Action: Mia rides a deer through the glade.") {
		t.Fatalf("scene layer missing:\n%s", got)
	}
	if !strings.Contains(got, "identical character face") {
		t.Fatalf("constraint layer missing:\n%s", got)
	}
}

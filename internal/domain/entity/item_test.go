package entity_test

import (
	"testing"

	"tagfeed/internal/domain/entity"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := entity.Item{Title: "Go 1.25 released", Description: "The Go team announced...", Link: "https://a.example/1", Source: "a.example"}
	b := entity.Item{Title: "Go 1.25 released", Description: "The Go team announced...", Link: "https://b.example/99", Source: "b.example"}

	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("items with identical content produced different fingerprints: %s vs %s",
			a.Fingerprint(), b.Fingerprint())
	}
}

func TestFingerprintDistinguishesContent(t *testing.T) {
	tests := []struct {
		name          string
		title1, desc1 string
		title2, desc2 string
	}{
		{"different title", "A", "same", "B", "same"},
		{"different description", "same", "A", "same", "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if entity.Fingerprint(tt.title1, tt.desc1) == entity.Fingerprint(tt.title2, tt.desc2) {
				t.Errorf("expected distinct fingerprints for %q/%q and %q/%q",
					tt.title1, tt.desc1, tt.title2, tt.desc2)
			}
		})
	}
}

func TestFingerprintConcatenatesFields(t *testing.T) {
	// The digest covers title+description as one string, so shifting the
	// field boundary does not change it. Classification identity is the
	// combined text, not the field split.
	if entity.Fingerprint("ab", "c") != entity.Fingerprint("a", "bc") {
		t.Error("fingerprints differ for the same concatenated content")
	}
}

func TestFingerprintFormat(t *testing.T) {
	fp := entity.Fingerprint("title", "description")
	if len(fp) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(fp))
	}
	for _, c := range fp {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("fingerprint contains non-hex character %q", c)
		}
	}
}

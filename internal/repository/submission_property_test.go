package repository

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// Title normalization must be idempotent, so a stored normalized title
// compares equal to the re-normalized form of any later claim.
func TestNormalizeFilmTitleIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.String().Draw(t, "title")

		once := NormalizeFilmTitle(title)
		twice := NormalizeFilmTitle(once)
		if once != twice {
			t.Fatalf("normalization not idempotent: %q -> %q -> %q", title, once, twice)
		}
	})
}

// Casing and surrounding whitespace must never distinguish two claims
// of the same film.
func TestNormalizeFilmTitleEquivalenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.StringMatching(`[A-Za-z0-9 ]{1,40}`).Draw(t, "title")
		pad := rapid.StringMatching(`[ \t]{0,5}`).Draw(t, "pad")

		variants := []string{
			title,
			strings.ToUpper(title),
			strings.ToLower(title),
			pad + title + pad,
		}

		want := NormalizeFilmTitle(title)
		for _, v := range variants {
			if got := NormalizeFilmTitle(v); got != want {
				t.Fatalf("variant %q normalized to %q, want %q", v, got, want)
			}
		}
	})
}

// Inner whitespace is significant: normalization only trims the edges.
func TestNormalizeFilmTitleKeepsInnerSpacing(t *testing.T) {
	if NormalizeFilmTitle("Blade  Runner") == NormalizeFilmTitle("Blade Runner") {
		t.Fatal("inner whitespace must distinguish titles")
	}
}

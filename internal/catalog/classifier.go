// Package catalog turns Instagram posts into draft jewelry products.
package catalog

import (
	"regexp"
	"strings"

	"github.com/MelvinDY/SGM/internal/external"
	"github.com/MelvinDY/SGM/internal/models"
)

const (
	fallbackName  = "Perhiasan Emas"
	minNameLength = 3
	maxNameLength = 50
)

// hashtags is checked in order; the first tag found in the caption wins.
var hashtags = []struct {
	tag      string
	category models.Category
}{
	{"#cincin", models.CategoryRing},
	{"#kalung", models.CategoryNecklace},
	{"#gelang", models.CategoryBracelet},
	{"#anting", models.CategoryEarring},
}

var hashtagRe = regexp.MustCompile(`#\w+`)

// ParsedPost is a feed post with the fields an import needs.
type ParsedPost struct {
	external.Post
	DetectedCategory *models.Category `json:"detectedCategory"`
	SuggestedName    string           `json:"suggestedName"`
}

// DetectCategory looks for a category hashtag anywhere in the caption, ignoring case.
// Substring matching means "#cincinemas" also counts as a ring.
func DetectCategory(caption string) (models.Category, bool) {
	lower := strings.ToLower(caption)
	for _, h := range hashtags {
		if strings.Contains(lower, h.tag) {
			return h.category, true
		}
	}
	return "", false
}

// SuggestName takes the first caption line with hashtags removed.
func SuggestName(caption string) string {
	stripped := strings.TrimSpace(hashtagRe.ReplaceAllString(caption, ""))
	first, _, _ := strings.Cut(stripped, "\n")
	first = strings.TrimSpace(first)

	runes := []rune(first)
	switch {
	case len(runes) < minNameLength:
		return fallbackName
	case len(runes) > maxNameLength:
		return string(runes[:maxNameLength-3]) + "..."
	}
	return first
}

func ParsePosts(posts []external.Post) []ParsedPost {
	out := make([]ParsedPost, 0, len(posts))
	for _, p := range posts {
		pp := ParsedPost{Post: p, SuggestedName: SuggestName(p.Caption)}
		if c, ok := DetectCategory(p.Caption); ok {
			pp.DetectedCategory = &c
		}
		out = append(out, pp)
	}
	return out
}

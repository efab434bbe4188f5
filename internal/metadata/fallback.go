package metadata

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	maxContextRunes  = 50
	fallbackHashtags = 5
	followUs         = "Follow us for more updates!"
)

// Fallback builds deterministic metadata from the keyword table. It is used
// whenever the language model is unreachable or returns something unusable.
func Fallback(category Category, contextLabel string) Metadata {
	keywords := Keywords(category)
	return Metadata{
		Title:           category.Title() + ": " + firstRunes(contextLabel, maxContextRunes),
		Description:     fallbackDescription(category, keywords),
		Hashtags:        hashtags(keywords, fallbackHashtags),
		Tags:            fallbackTags(category, keywords),
		ThumbnailPrompt: fallbackThumbnailPrompt(category),
	}
}

// BoundaryFallback is the last-resort draft returned by the HTTP layer when
// request handling fails before the generator can run. Only the category is
// known at that point.
func BoundaryFallback(category Category) Metadata {
	if category == "" {
		category = "video"
	}
	keywords, ok := categoryKeywords[category]
	if !ok {
		keywords = []string{"video", "content"}
	}
	keywords = append([]string(nil), keywords...)

	return Metadata{
		Title:           fmt.Sprintf("Amazing %s Content", category.Title()),
		Description:     fallbackDescription(category, keywords),
		Hashtags:        hashtags(keywords, fallbackHashtags),
		Tags:            fallbackTags(category, keywords),
		ThumbnailPrompt: fallbackThumbnailPrompt(category),
	}
}

func fallbackDescription(category Category, keywords []string) string {
	return fmt.Sprintf(
		"Check out this amazing %s video! Don't forget to like, comment, and subscribe for more content!\n\n%s\n\n%s",
		category, strings.Join(keywords, ", "), followUs,
	)
}

func fallbackThumbnailPrompt(category Category) string {
	return fmt.Sprintf(
		"Create an eye-catching thumbnail featuring bold text, vibrant colors, and imagery related to %s. Include the main topic prominently.",
		category,
	)
}

func fallbackTags(category Category, keywords []string) []string {
	tags := make([]string, 0, len(keywords)+4)
	tags = append(tags, keywords...)
	return append(tags, "video", string(category), "content", "youtube")
}

func hashtags(keywords []string, limit int) []string {
	n := min(limit, len(keywords))
	out := make([]string, 0, n)
	for _, keyword := range keywords[:n] {
		out = append(out, "#"+stripSpace(keyword))
	}
	return out
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

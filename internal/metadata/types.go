package metadata

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Category string

const (
	CategoryTech     Category = "tech"
	CategoryVlog     Category = "vlog"
	CategoryShorts   Category = "shorts"
	CategoryGaming   Category = "gaming"
	CategoryTutorial Category = "tutorial"
)

// Categories lists the categories offered to the user, in display order.
var Categories = []Category{
	CategoryTech,
	CategoryVlog,
	CategoryShorts,
	CategoryGaming,
	CategoryTutorial,
}

func (c Category) String() string { return string(c) }

// Title returns the category name with its first letter upper-cased.
func (c Category) Title() string {
	s := string(c)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// Metadata is the SEO draft shown to the user for review. Field names on the
// wire match what the browser client and the language model exchange.
type Metadata struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Hashtags        []string `json:"hashtags"`
	Tags            []string `json:"tags"`
	ThumbnailPrompt string   `json:"thumbnailPrompt"`
}

var ErrIncomplete = errors.New("metadata incomplete")

// Validate reports the first empty field. Submission requires every field.
func (m Metadata) Validate() error {
	switch {
	case strings.TrimSpace(m.Title) == "":
		return fmt.Errorf("%w: title is empty", ErrIncomplete)
	case strings.TrimSpace(m.Description) == "":
		return fmt.Errorf("%w: description is empty", ErrIncomplete)
	case len(m.Hashtags) == 0:
		return fmt.Errorf("%w: no hashtags", ErrIncomplete)
	case len(m.Tags) == 0:
		return fmt.Errorf("%w: no tags", ErrIncomplete)
	case strings.TrimSpace(m.ThumbnailPrompt) == "":
		return fmt.Errorf("%w: thumbnail prompt is empty", ErrIncomplete)
	}
	return nil
}

// Clone returns a deep copy so callers never share slices with the owner.
func (m Metadata) Clone() Metadata {
	out := m
	out.Hashtags = append([]string(nil), m.Hashtags...)
	out.Tags = append([]string(nil), m.Tags...)
	return out
}

type Source int

const (
	SourceModel Source = iota
	SourceFallback
)

func (s Source) String() string {
	if s == SourceFallback {
		return "fallback"
	}
	return "model"
}

// Result is what the generator produced and which path produced it.
type Result struct {
	Metadata Metadata
	Source   Source
}

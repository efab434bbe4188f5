package metadata

var categoryKeywords = map[Category][]string{
	CategoryTech:     {"technology", "software", "coding", "programming", "developer", "tech review", "innovation"},
	CategoryVlog:     {"vlog", "daily life", "lifestyle", "personal", "day in the life", "vlogger"},
	CategoryShorts:   {"shorts", "short video", "quick tips", "viral", "trending"},
	CategoryGaming:   {"gaming", "gameplay", "games", "gamer", "playthrough", "walkthrough", "esports"},
	CategoryTutorial: {"tutorial", "how to", "guide", "learn", "education", "step by step", "tips"},
}

// Keywords returns the fallback keywords for a category. Unknown categories
// yield an empty, non-nil slice.
func Keywords(category Category) []string {
	keywords := categoryKeywords[category]
	out := make([]string, len(keywords))
	copy(out, keywords)
	return out
}

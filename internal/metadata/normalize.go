package metadata

const (
	maxTitleLength = 100
	ellipsis       = "..."
)

// Normalize caps the title at 100 characters. All other fields pass through.
func Normalize(m Metadata) Metadata {
	m.Title = truncateTitle(m.Title)
	return m
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLength {
		return title
	}
	return string(runes[:maxTitleLength-len(ellipsis)]) + ellipsis
}

package filter

import "strings"

// Site-suffix markers, in the order they are stripped.
var titleMarkers = []string{" – ", " - ", "|"}

// Markup fragments that survive some feeds' titles.
var titleReplacements = [][2]string{
	{"<b>", ""},
	{"</b>", ""},
	{"&#39;", "'"},
}

// CleanTitle drops "| Site Name" style suffixes and residual markup from a
// title. A marker is honored only past the 25th byte, so short titles that
// legitimately contain a hyphen ("X-37B launches") are left alone.
func CleanTitle(title string) string {
	for _, marker := range titleMarkers {
		title = truncateAtMarker(title, marker)
	}
	for _, r := range titleReplacements {
		title = strings.ReplaceAll(title, r[0], r[1])
	}
	return strings.TrimSpace(title)
}

func truncateAtMarker(s, marker string) string {
	if len(s) <= 25 {
		return s
	}
	if pos := strings.LastIndex(s[25:], marker); pos != -1 {
		return s[:25+pos]
	}
	return s
}

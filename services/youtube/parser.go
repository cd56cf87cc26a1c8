package youtube

import (
	"regexp"
	"strconv"
	"strings"

	"cinetrail/models"
)

// Title parsing is per channel: each source has its own trailer naming
// convention and its own rejection rules. Parsers are pure functions; the
// boolean result is false when the video is not an official numbered
// trailer worth tracking.

var (
	// "Dune Part Two Official Trailer #1 (2024)" -> "Dune Part Two"
	rtTitleRe = regexp.MustCompile(`^(.+?)(?:\s+Official)?\s+Trailer\s+#`)

	// "DUNE | Official Trailer #1 | MUBI" -> "DUNE"
	mubiTitleRe = regexp.MustCompile(`^(.+?)\s*\|\s*Official Trailer`)

	yearRe = regexp.MustCompile(`\((\d{4})\)`)
)

// ParseRottenTomatoesTitle extracts the movie title from the Rotten Tomatoes
// channel convention. Only numbered official trailers ("Trailer #N") are
// accepted; teasers carry no number marker and are rejected. The optional
// 4-digit year comes from a parenthesized group anywhere in the title.
func ParseRottenTomatoesTitle(title string) (models.ParsedTitle, bool) {
	if strings.TrimSpace(title) == "" {
		return models.ParsedTitle{}, false
	}

	// Teasers never carry the "Trailer #" marker.
	if !strings.Contains(title, "Trailer #") {
		return models.ParsedTitle{}, false
	}

	m := rtTitleRe.FindStringSubmatch(title)
	if m == nil {
		return models.ParsedTitle{}, false
	}

	cleaned := strings.TrimSpace(m[1])
	if cleaned == "" {
		return models.ParsedTitle{}, false
	}

	return models.ParsedTitle{Title: cleaned, Year: extractYear(title)}, true
}

// ParseMubiTitle extracts the movie title from the MUBI channel convention.
// The title must carry an "Official Trailer" segment behind a pipe; teasers
// and "Coming Soon" announcements are rejected. MUBI titles never carry a
// year, so Year is always 0.
func ParseMubiTitle(title string) (models.ParsedTitle, bool) {
	if strings.TrimSpace(title) == "" {
		return models.ParsedTitle{}, false
	}

	if strings.Contains(title, "Official Teaser") || strings.Contains(title, "Coming Soon") {
		return models.ParsedTitle{}, false
	}
	if !strings.Contains(title, "Official Trailer") {
		return models.ParsedTitle{}, false
	}

	m := mubiTitleRe.FindStringSubmatch(title)
	if m == nil {
		return models.ParsedTitle{}, false
	}

	cleaned := strings.TrimSpace(m[1])
	if cleaned == "" {
		return models.ParsedTitle{}, false
	}

	return models.ParsedTitle{Title: cleaned}, true
}

// extractYear pulls a parenthesized 4-digit year out of a raw title, or 0.
func extractYear(title string) int {
	m := yearRe.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return year
}

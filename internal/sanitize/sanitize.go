// Package sanitize turns generated text into plain text that fits a single
// Telegram message.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxChars is kept below Telegram's 4096 limit to leave a margin.
const MaxChars = 3900

const ellipsis = "…"

var (
	markupChars  = strings.NewReplacer("`", "", "*", "", "_", "", "#", "")
	blankRuns    = regexp.MustCompile(`\n{3,}`)
	leadingDash  = regexp.MustCompile(`^[ \t]*-[ \t]+`)
	leadingQuote = regexp.MustCompile(`^[ \t]*>[ \t]?`)
)

// Text strips markup punctuation, quote and list markers, collapses blank
// runs and bounds the result to MaxChars runes. Text(Text(s)) == Text(s).
func Text(s string) string {
	// Every pass only removes characters once the text fits, so the loop
	// reaches a fixed point.
	for {
		next := pass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func pass(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = markupChars.Replace(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = stripMarkers(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) > MaxChars {
		s = strings.TrimSpace(string([]rune(s)[:MaxChars-10])) + ellipsis
	}
	return s
}

// stripMarkers removes leading quote and dash markers until neither applies.
func stripMarkers(line string) string {
	for {
		next := leadingQuote.ReplaceAllString(line, "")
		next = leadingDash.ReplaceAllString(next, "")
		if next == line {
			return line
		}
		line = next
	}
}

// Truncate cuts s to at most n runes, preferring the last word boundary, and
// marks the cut with an ellipsis.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	cut := string(runes[:n-1])
	if i := strings.LastIndexAny(cut, " \n\t"); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + ellipsis
}

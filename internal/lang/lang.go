// Package lang guesses the content language of a message from its script.
package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	Russian = "ru"
	Hebrew  = "he"
	English = "en"

	// Default is used for blank input and unknown scripts.
	Default = Russian
)

// windowSize and quorum implement the 2-of-3 stabilization rule.
const (
	windowSize = 3
	quorum     = 2
)

// minLatinRunes keeps short Latin tokens ("ok", "ty") from voting for English.
const minLatinRunes = 12

type script struct {
	tag   string
	match func(r rune) bool
}

// Order is priority: non-Latin scripts win over Latin in mixed text.
var scripts = []script{
	{Russian, func(r rune) bool { return unicode.Is(unicode.Cyrillic, r) }},
	{Hebrew, func(r rune) bool { return unicode.Is(unicode.Hebrew, r) }},
	{English, func(r rune) bool { return r < unicode.MaxASCII && unicode.IsLetter(r) }},
}

// Detect returns the language tag of the first script present in text.
func Detect(text string) string {
	for _, s := range scripts {
		if strings.IndexFunc(text, s.match) >= 0 {
			return s.tag
		}
	}
	return Default
}

// Supported reports whether tag is one of the content languages.
func Supported(tag string) bool {
	switch tag {
	case Russian, Hebrew, English:
		return true
	}
	return false
}

// State is the per-session language memory.
type State struct {
	Stable  string   `json:"stable,omitempty"`
	History []string `json:"history,omitempty"`
}

// Current returns the stable language or Default.
func (s *State) Current() string {
	if s.Stable == "" {
		return Default
	}
	return s.Stable
}

// Observe classifies text and updates the state. With hysteresis the stable
// language only changes when a tag holds a quorum of the recent window.
func (s *State) Observe(text string, hysteresis bool) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.Current()
	}
	cand := Detect(text)
	if cand == English && utf8.RuneCountInString(text) < minLatinRunes {
		cand = s.Current()
	}
	if !hysteresis {
		s.Stable = cand
		return cand
	}

	s.History = append(s.History, cand)
	if len(s.History) > windowSize {
		s.History = s.History[len(s.History)-windowSize:]
	}
	counts := make(map[string]int, windowSize)
	best, top := "", 0
	for _, tag := range s.History {
		counts[tag]++
		if counts[tag] > top {
			best, top = tag, counts[tag]
		}
	}
	if top >= quorum {
		s.Stable = best
	}
	if s.Stable == "" {
		return cand
	}
	return s.Stable
}

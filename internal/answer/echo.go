package answer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minEchoRunes is the shortest topic treated as a possible restatement.
const minEchoRunes = 2

// StripEcho removes a leading restatement of topic from answer. Matching
// ignores case, punctuation and spacing, and stops on word boundaries.
// Text that opens with one of the keep labels is never cut.
func StripEcho(answer, topic string, keep ...string) string {
	key := fold(topic)
	if len(key) < minEchoRunes {
		return answer
	}
	labels := make([][]rune, 0, len(keep))
	for _, k := range keep {
		if f := fold(k); len(f) > 0 {
			labels = append(labels, f)
		}
	}
	for {
		if opensWithLabel(answer, labels) {
			return answer
		}
		cut, ok := echoPrefix(answer, key)
		if !ok {
			return answer
		}
		answer = strings.TrimLeftFunc(answer[cut:], isFiller)
	}
}

func opensWithLabel(s string, labels [][]rune) bool {
	for _, l := range labels {
		if _, ok := echoPrefix(s, l); ok {
			return true
		}
	}
	return false
}

// echoPrefix returns the byte offset in s just past a leading occurrence of
// key.
func echoPrefix(s string, key []rune) (int, bool) {
	k := 0
	for i, r := range s {
		if k == len(key) {
			if isWord(r) {
				return 0, false
			}
			return i, true
		}
		if !isWord(r) {
			continue
		}
		if unicode.ToLower(r) != key[k] {
			return 0, false
		}
		k++
	}
	if k == len(key) {
		return len(s), true
	}
	return 0, false
}

func fold(s string) []rune {
	out := make([]rune, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		if isWord(r) {
			out = append(out, unicode.ToLower(r))
		}
	}
	return out
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isFiller(r rune) bool {
	return !isWord(r)
}

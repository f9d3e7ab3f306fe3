package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"markup", "**Bold** and `code` with _under_ # heading", "Bold and code with under  heading"},
		{"heading", "## Context\nbody", "Context\nbody"},
		{"quote", "> quoted line\nplain", "quoted line\nplain"},
		{"dash list", "- one\n  - two\nthree", "one\ntwo\nthree"},
		{"nested markers", "> - item", "item"},
		{"dash without space kept", "-5 degrees", "-5 degrees"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"crlf", "a\r\n\r\n\r\nb", "a\n\nb"},
		{"trim", "  \n text \n ", "text"},
		{"fence", "```\ncode\n```", "code"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.in); got != tc.want {
				t.Fatalf("Text(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTextLengthBound(t *testing.T) {
	long := strings.Repeat("слово ", 2000)
	got := Text(long)
	if n := utf8.RuneCountInString(got); n > MaxChars {
		t.Fatalf("length %d exceeds %d", n, MaxChars)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated text should end with an ellipsis: %q", got[len(got)-20:])
	}
}

func TestTextIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"- - double dash",
		"> > double quote",
		"- \n  > x",
		" \u00a0> odd space",
		"#\n\n\n-\t\n>\n\n\n*",
		"a\n \n\n\nb",
		strings.Repeat("**x** - y\n\n\n> z ", 900),
		strings.Repeat("ж", MaxChars+5),
	}
	for _, in := range inputs {
		once := Text(in)
		if twice := Text(once); twice != once {
			t.Fatalf("not idempotent for %q:\nonce:  %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short text", 100); got != "short text" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	got := Truncate("alpha beta gamma delta", 14)
	if got != "alpha beta…" {
		t.Fatalf("Truncate = %q", got)
	}
	if n := utf8.RuneCountInString(Truncate(strings.Repeat("я", 50), 10)); n != 10 {
		t.Fatalf("rune length = %d, want 10", n)
	}
}

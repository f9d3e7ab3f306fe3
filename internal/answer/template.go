package answer

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the shape of a template answer.
type Kind string

const (
	KindAnalytical Kind = "analytical"
	KindRecipe     Kind = "recipe"
	KindNapoleon   Kind = "napoleon"
)

// TemplateProvider builds deterministic answers from the catalogue. It never
// touches the network.
type TemplateProvider struct {
	catalog *Catalog
}

func NewTemplateProvider(catalog *Catalog) *TemplateProvider {
	return &TemplateProvider{catalog: catalog}
}

// Classify picks the template shape for topic.
func (t *TemplateProvider) Classify(topic string) Kind {
	m := strings.ToLower(strings.TrimSpace(topic))
	if m == "" {
		return KindAnalytical
	}
	if containsAny(m, t.catalog.Cooking.Napoleon) {
		return KindNapoleon
	}
	if containsAny(m, t.catalog.Cooking.Keywords) {
		return KindRecipe
	}
	return KindAnalytical
}

func (t *TemplateProvider) Answer(_ context.Context, req Request) (string, error) {
	req = normalize(req)
	l := t.catalog.Language(req.Lang)

	switch t.Classify(req.Topic) {
	case KindNapoleon:
		return join(l.Recipe.Sections, l.Recipe.Napoleon), nil
	case KindRecipe:
		return join(l.Recipe.Sections, l.Recipe.Generic), nil
	}

	data := map[string]any{"Subject": subject(l, req.Topic)}
	bodies := make([]string, len(l.analytical))
	for i, tmpl := range l.analytical {
		body, err := execute(tmpl, data)
		if err != nil {
			return "", fmt.Errorf("render template answer: %w", err)
		}
		bodies[i] = body
	}
	return join(l.Sections, bodies), nil
}

func subject(l *Language, topic string) string {
	m := strings.ToLower(topic)
	for _, s := range l.Subjects {
		if containsAny(m, s.Keywords) {
			return s.Name
		}
	}
	return l.Subject
}

func join(labels, bodies []string) string {
	var b strings.Builder
	for i, label := range labels {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(label)
		b.WriteString(". ")
		b.WriteString(bodies[i])
	}
	return b.String()
}

// containsAny reports whether s has a word starting with one of needles.
func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if hasWordPrefix(s, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func hasWordPrefix(s, prefix string) bool {
	if prefix == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(s[i:], prefix)
		if j < 0 {
			return false
		}
		j += i
		if j == 0 {
			return true
		}
		r, _ := utf8.DecodeLastRuneInString(s[:j])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
		i = j + len(prefix)
	}
}

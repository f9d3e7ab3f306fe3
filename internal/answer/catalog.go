package answer

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"

	"smartpro-bot/internal/lang"
	"smartpro-bot/internal/types"
)

//go:embed prompts/answer.yaml
var defaultCatalog []byte

// WordRange is the target length of a generated answer.
type WordRange struct {
	Min int
	Max int
}

type DepthSpec struct {
	MinWords  int `yaml:"min_words"`
	MaxWords  int `yaml:"max_words"`
	MaxTokens int `yaml:"max_tokens"`
}

type CookingSpec struct {
	Keywords []string `yaml:"keywords"`
	Napoleon []string `yaml:"napoleon"`
}

type Subject struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Recipe holds the section labels and bodies of the cooking templates.
type Recipe struct {
	Sections []string `yaml:"sections"`
	Generic  []string `yaml:"generic"`
	Napoleon []string `yaml:"napoleon"`
}

// Language is the prompt and fallback material of one content language.
type Language struct {
	Name        string    `yaml:"name"`
	Placeholder string    `yaml:"placeholder"`
	Subject     string    `yaml:"subject"`
	Unavailable string    `yaml:"unavailable"`
	Sections    []string  `yaml:"sections"`
	System      string    `yaml:"system"`
	User        string    `yaml:"user"`
	Analytical  []string  `yaml:"analytical"`
	Subjects    []Subject `yaml:"subjects"`
	Recipe      Recipe    `yaml:"recipe"`

	system     *template.Template
	user       *template.Template
	analytical []*template.Template
}

// Catalog is the parsed prompts/answer.yaml.
type Catalog struct {
	Temperature float32                   `yaml:"temperature"`
	Depths      map[types.Depth]DepthSpec `yaml:"depths"`
	Cooking     CookingSpec               `yaml:"cooking"`
	Languages   map[string]*Language      `yaml:"languages"`

	labels []string
}

// DefaultCatalog parses the embedded catalogue.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalogue from disk, falling back to the embedded one
// when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt catalog: %w", err)
	}
	return ParseCatalog(b)
}

// ParseCatalog decodes and validates a catalogue and compiles its templates.
func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	if _, ok := c.Languages[lang.Default]; !ok {
		return nil, fmt.Errorf("prompt catalog: default language %q missing", lang.Default)
	}
	for _, d := range []types.Depth{types.DepthShort, types.DepthMedium, types.DepthDeep} {
		if _, ok := c.Depths[d]; !ok {
			return nil, fmt.Errorf("prompt catalog: depth %q missing", d)
		}
	}
	for tag, l := range c.Languages {
		if err := l.compile(tag); err != nil {
			return nil, err
		}
		c.labels = append(c.labels, l.Sections...)
		c.labels = append(c.labels, l.Recipe.Sections...)
	}
	return &c, nil
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func parse(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
}

func (l *Language) compile(tag string) error {
	if len(l.Sections) != 6 || len(l.Analytical) != len(l.Sections) {
		return fmt.Errorf("prompt catalog %s: need 6 sections with one analytical body each", tag)
	}
	n := len(l.Recipe.Sections)
	if n == 0 || len(l.Recipe.Generic) != n || len(l.Recipe.Napoleon) != n {
		return fmt.Errorf("prompt catalog %s: recipe bodies do not match recipe sections", tag)
	}

	var err error
	if l.system, err = parse(tag+".system", l.System); err != nil {
		return fmt.Errorf("prompt catalog %s: %w", tag, err)
	}
	if l.user, err = parse(tag+".user", l.User); err != nil {
		return fmt.Errorf("prompt catalog %s: %w", tag, err)
	}
	l.analytical = make([]*template.Template, len(l.Analytical))
	for i, body := range l.Analytical {
		if l.analytical[i], err = parse(fmt.Sprintf("%s.analytical.%d", tag, i), body); err != nil {
			return fmt.Errorf("prompt catalog %s: %w", tag, err)
		}
	}
	return nil
}

// Language returns the material for tag, or the default language.
func (c *Catalog) Language(tag string) *Language {
	if l, ok := c.Languages[tag]; ok {
		return l
	}
	return c.Languages[lang.Default]
}

// Labels returns every section label of every language.
func (c *Catalog) Labels() []string {
	return c.labels
}

// Depth returns the limits for d, falling back to deep.
func (c *Catalog) Depth(d types.Depth) DepthSpec {
	if s, ok := c.Depths[d]; ok {
		return s
	}
	return c.Depths[types.DepthDeep]
}

func execute(t *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

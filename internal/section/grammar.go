package section

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default patterns for titles such as "1.2.3 Section Title".
const (
	DefaultNumbering = `\d+(?:\.\d+)*`
	DefaultFirstWord = `[A-Z(\[][a-zA-Z0-9)\]/+-]*`
	DefaultNextWord  = `[A-Z(\[][a-zA-Z0-9)\]/+-]*`

	DefaultMaxComponentDigits = 2
)

// DefaultStopwords may appear lowercase inside a title.
var DefaultStopwords = []string{"the", "or", "and", "to", "in", "on", "at", "of", "for"}

var digitsRe = regexp.MustCompile(`\d+`)

// Grammar describes one section numbering convention. It is plain data:
// swapping conventions means passing a different Grammar, nothing else.
//
// A title line is leading whitespace, a number matching Numbering, one
// space or tab, a word matching FirstWord, then any number of words that
// match NextWord or are one of Stopwords.
type Grammar struct {
	Name               string   `yaml:"name"`
	Numbering          string   `yaml:"numbering"`
	FirstWord          string   `yaml:"first_word"`
	NextWord           string   `yaml:"next_word"`
	Stopwords          []string `yaml:"stopwords"`
	MaxComponentDigits int      `yaml:"max_component_digits"`

	title  *regexp.Regexp
	number *regexp.Regexp
}

// DefaultGrammar returns the compiled dotted-number grammar.
func DefaultGrammar() *Grammar {
	g := &Grammar{Name: "dotted"}
	if err := g.Compile(); err != nil {
		panic(err)
	}
	return g
}

// Compile fills unset fields with defaults and builds the title matcher.
func (g *Grammar) Compile() error {
	if g.Name == "" {
		g.Name = "dotted"
	}
	if g.Numbering == "" {
		g.Numbering = DefaultNumbering
	}
	if g.FirstWord == "" {
		g.FirstWord = DefaultFirstWord
	}
	if g.NextWord == "" {
		g.NextWord = DefaultNextWord
	}
	if g.Stopwords == nil {
		g.Stopwords = append([]string(nil), DefaultStopwords...)
	}
	if g.MaxComponentDigits <= 0 {
		g.MaxComponentDigits = DefaultMaxComponentDigits
	}

	number, err := regexp.Compile(`^(?:` + g.Numbering + `)`)
	if err != nil {
		return fmt.Errorf("grammar %s: numbering: %w", g.Name, err)
	}

	next := g.NextWord
	if len(g.Stopwords) > 0 {
		quoted := make([]string, len(g.Stopwords))
		for i, w := range g.Stopwords {
			quoted[i] = regexp.QuoteMeta(w)
		}
		next += "|" + strings.Join(quoted, "|")
	}
	// Leading \s may span blank lines; words inside a title stay on one line.
	expr := `(?m)^\s+((?:` + g.Numbering + `)[ \t](?:` + g.FirstWord + `)(?:[ \t](?:` + next + `))*)[ \t]*\r?$`
	title, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("grammar %s: title: %w", g.Name, err)
	}

	g.number = number
	g.title = title
	return nil
}

// ParseGrammar decodes a YAML grammar and compiles it.
func ParseGrammar(data []byte) (*Grammar, error) {
	var g Grammar
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode grammar: %w", err)
	}
	if err := g.Compile(); err != nil {
		return nil, err
	}
	return &g, nil
}

// LoadGrammar reads a YAML grammar file.
func LoadGrammar(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	return ParseGrammar(data)
}

// Ident parses the leading number of title.
func (g *Grammar) Ident(title string) (Ident, error) {
	parts, err := g.components(title)
	if err != nil {
		return nil, err
	}
	id := make(Ident, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedTitle, title, err)
		}
		id[i] = n
	}
	return id, nil
}

// components returns the digit runs of the title's leading number.
func (g *Grammar) components(title string) ([]string, error) {
	prefix := g.number.FindString(title)
	parts := digitsRe.FindAllString(prefix, -1)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedTitle, title)
	}
	return parts, nil
}

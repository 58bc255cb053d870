package chunker

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/sectiongest/internal/doctree"
	"github.com/dgallion1/sectiongest/internal/section"
)

// DefaultMaxWords is the default chunk budget in words.
const DefaultMaxWords = 500

// Splitter turns a numbered-heading document into lineage-annotated chunks.
// It holds no per-document state and is safe for concurrent use.
type Splitter struct {
	maxWords int
	grammar  *section.Grammar
	log      *slog.Logger
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMaxWords sets the per-chunk word budget.
func WithMaxWords(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxWords = n
		}
	}
}

// WithGrammar sets the section numbering grammar.
func WithGrammar(g *section.Grammar) Option {
	return func(s *Splitter) {
		if g != nil {
			s.grammar = g
		}
	}
}

// WithLogger sets the logger used for tree-building and content warnings.
func WithLogger(log *slog.Logger) Option {
	return func(s *Splitter) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		maxWords: DefaultMaxWords,
		grammar:  section.DefaultGrammar(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxWords returns the configured chunk budget.
func (s *Splitter) MaxWords() int { return s.maxWords }

// Grammar returns the configured grammar.
func (s *Splitter) Grammar() *section.Grammar { return s.grammar }

// Tree extracts, validates and sorts the titles of text, builds the section
// forest and assigns content spans.
func (s *Splitter) Tree(text string) (*section.Forest, error) {
	titles, err := s.grammar.Extract(text)
	if err != nil {
		return nil, err
	}
	valid, err := s.grammar.Validate(titles)
	if err != nil {
		return nil, err
	}
	sorted, err := s.grammar.Sort(valid)
	if err != nil {
		return nil, err
	}
	forest, err := section.Build(s.grammar, sorted, s.log)
	if err != nil {
		return nil, err
	}
	section.AssignContent(forest, text, s.log)
	return forest, nil
}

// SplitWithTree returns the chunks of text together with its section forest.
// Any error aborts the whole document; no partial chunk list is returned.
func (s *Splitter) SplitWithTree(text string) ([]doctree.Chunk, *section.Forest, error) {
	forest, err := s.Tree(text)
	if err != nil {
		return nil, nil, err
	}

	var chunks []doctree.Chunk
	for _, placed := range forest.Placed {
		title := forest.Node(placed).Title
		id, ok := forest.Search(title)
		if !ok || !forest.Node(id).HasContent {
			s.log.Warn("section has no content", "title", title)
			continue
		}

		parts, err := SplitText(forest.Annotate(id), s.maxWords)
		if err != nil {
			return nil, nil, fmt.Errorf("split section %q: %w", title, err)
		}
		lineage := forest.Lineage(id)
		for k, p := range parts {
			chunks = append(chunks, doctree.Chunk{
				Text:       p,
				Index:      len(chunks),
				Breadcrumb: copyBreadcrumb(lineage),
				Part:       k + 1,
				Parts:      len(parts),
			})
		}
	}
	return chunks, forest, nil
}

// SplitChunks returns the structured chunks of text.
func (s *Splitter) SplitChunks(text string) ([]doctree.Chunk, error) {
	chunks, _, err := s.SplitWithTree(text)
	return chunks, err
}

// Split returns the chunk strings of text in order.
func (s *Splitter) Split(text string) ([]string, error) {
	chunks, err := s.SplitChunks(text)
	if err != nil {
		return nil, err
	}
	return Texts(chunks), nil
}

// Texts returns the text of each chunk.
func Texts(chunks []doctree.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}

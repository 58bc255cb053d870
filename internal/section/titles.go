package section

import (
	"fmt"
	"slices"
	"unicode"
)

// Extract returns every title-shaped line of text, in document order.
func (g *Grammar) Extract(text string) ([]string, error) {
	matches := g.title.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w in text", ErrNoSectionsFound)
	}
	titles := make([]string, 0, len(matches))
	for _, m := range matches {
		titles = append(titles, m[1])
	}
	return titles, nil
}

// Validate drops all-caps titles (usually running headers) and titles with a
// number component longer than MaxComponentDigits (page or part numbers read
// as section numbers). Titles without a leading number are dropped as well.
func (g *Grammar) Validate(titles []string) ([]string, error) {
	valid := make([]string, 0, len(titles))
	for _, t := range titles {
		if isUpper(t) {
			continue
		}
		parts, err := g.components(t)
		if err != nil {
			continue
		}
		if slices.ContainsFunc(parts, func(p string) bool { return len(p) > g.MaxComponentDigits }) {
			continue
		}
		valid = append(valid, t)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no valid sections in text", ErrNoSectionsFound)
	}
	return valid, nil
}

// Sort orders titles by identifier. Titles with equal identifiers keep their
// input order.
func (g *Grammar) Sort(titles []string) ([]string, error) {
	type keyed struct {
		title string
		id    Ident
	}
	items := make([]keyed, len(titles))
	for i, t := range titles {
		id, err := g.Ident(t)
		if err != nil {
			return nil, err
		}
		items[i] = keyed{title: t, id: id}
	}
	slices.SortStableFunc(items, func(a, b keyed) int { return Compare(a.id, b.id) })

	sorted := make([]string, len(items))
	for i, it := range items {
		sorted[i] = it.title
	}
	return sorted, nil
}

// isUpper reports whether s has at least one cased letter and no lowercase ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

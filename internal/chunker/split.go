package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/sectiongest/internal/section"
)

// ErrLineTooLong means a single body line does not fit in a chunk once the
// lineage header is counted. Lines are never broken.
var ErrLineTooLong = errors.New("line too long")

// LineTooLongError describes the line that could not be placed.
type LineTooLongError struct {
	Header string // Lineage header of the section
	Line   int    // 0-based body line index, -1 when the header alone fills the budget
	Words  int    // Word count of the offending line
	Budget int    // Words per chunk left after the header
}

func (e *LineTooLongError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("line too long: header %q leaves no room (adjusted max %d)", e.Header, e.Budget)
	}
	return fmt.Sprintf("line too long: line %d in %q has %d words, adjusted max %d", e.Line, e.Header, e.Words, e.Budget)
}

func (e *LineTooLongError) Unwrap() error { return ErrLineTooLong }

// SplitText bounds one annotated section to maxWords words per chunk. Text
// that already fits is returned unchanged. Otherwise the first line is taken
// as the lineage header and whole body lines are packed greedily into parts,
// each led by the header with "part 1/1" rewritten to "part k/n".
func SplitText(text string, maxWords int) ([]string, error) {
	if WordCount(text) <= maxWords {
		return []string{text}, nil
	}

	lines := strings.Split(text, "\n")
	header, body := lines[0], lines[1:]
	budget := maxWords - WordCount(header)
	if budget <= 0 {
		return nil, &LineTooLongError{Header: header, Line: -1, Words: WordCount(header), Budget: budget}
	}

	counts := make([]int, len(body))
	for i, line := range body {
		counts[i] = WordCount(line)
		if counts[i] > budget {
			return nil, &LineTooLongError{Header: header, Line: i, Words: counts[i], Budget: budget}
		}
	}

	var groups [][]string
	for i := 0; i < len(body); {
		start, words := i, 0
		for i < len(body) && words+counts[i] <= budget {
			words += counts[i]
			i++
		}
		groups = append(groups, body[start:i])
	}

	parts := make([]string, len(groups))
	for k, g := range groups {
		parts[k] = partHeader(header, k+1, len(groups)) + "\n" + strings.Join(g, "\n") + "\n"
	}
	return parts, nil
}

// partHeader rewrites the trailing placeholder so titles that happen to
// contain "part 1/1" are left alone.
func partHeader(header string, k, n int) string {
	i := strings.LastIndex(header, section.PartPlaceholder)
	if i < 0 {
		return header
	}
	return header[:i] + fmt.Sprintf("part %d/%d", k, n) + header[i+len(section.PartPlaceholder):]
}

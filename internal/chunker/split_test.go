package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSplitText_UnderBudgetUnchanged(t *testing.T) {
	text := "In section: 1 Alpha, part 1/1:\n1 Alpha\nsome body text\n"
	parts, err := SplitText(text, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts) != 1 || parts[0] != text {
		t.Fatalf("expected the input back unchanged, got %q", parts)
	}
}

func TestSplitText_GreedyLinePacking(t *testing.T) {
	header := "In section: 1 Alpha Beta Gamma Delta Epsilon, part 1/1:"
	if WordCount(header) != 10 {
		t.Fatalf("test header should have 10 words, has %d", WordCount(header))
	}
	lines := make([]string, 5)
	for i := range lines {
		lines[i] = fmt.Sprintf("line%d ", i) + words(99)
	}
	text := header + "\n" + strings.Join(lines, "\n")

	parts, err := SplitText(text, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}

	wantLines := [][]string{lines[0:2], lines[2:4], lines[4:5]}
	var bodies strings.Builder
	for k, p := range parts {
		head, body, ok := strings.Cut(p, "\n")
		if !ok {
			t.Fatalf("part %d has no header line", k)
		}
		wantHead := fmt.Sprintf("In section: 1 Alpha Beta Gamma Delta Epsilon, part %d/3:", k+1)
		if head != wantHead {
			t.Errorf("part %d: expected header %q, got %q", k, wantHead, head)
		}
		if body != strings.Join(wantLines[k], "\n")+"\n" {
			t.Errorf("part %d: unexpected line group", k)
		}
		if WordCount(p) > 250 {
			t.Errorf("part %d: %d words exceeds budget", k, WordCount(p))
		}
		bodies.WriteString(body)
	}
	if bodies.String() != strings.Join(lines, "\n")+"\n" {
		t.Error("concatenated bodies do not reproduce the input lines")
	}
}

func TestSplitText_LineTooLong(t *testing.T) {
	text := "In section: 1 A, part 1/1:\n" + words(600)
	_, err := SplitText(text, 500)
	if !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong, got %v", err)
	}
	var lerr *LineTooLongError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *LineTooLongError, got %T", err)
	}
	if lerr.Words != 600 || lerr.Budget != 494 || lerr.Line != 0 {
		t.Errorf("unexpected error details %+v", lerr)
	}
}

func TestSplitText_HeaderFillsBudget(t *testing.T) {
	text := "In section: 1 A, part 1/1:\nbody"
	_, err := SplitText(text, 5)
	var lerr *LineTooLongError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *LineTooLongError, got %v", err)
	}
	if lerr.Line != -1 || lerr.Budget != -1 {
		t.Errorf("unexpected error details %+v", lerr)
	}
}

func TestPartHeader_RewritesTrailingPlaceholder(t *testing.T) {
	got := partHeader("In section: 1 Notes on part 1/1 Kits, part 1/1:", 2, 4)
	want := "In section: 1 Notes on part 1/1 Kits, part 2/4:"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

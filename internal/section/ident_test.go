package section

import (
	"errors"
	"testing"
)

func mustIdent(t *testing.T, title string) Ident {
	t.Helper()
	id, err := DefaultGrammar().Ident(title)
	if err != nil {
		t.Fatalf("Ident(%q): %v", title, err)
	}
	return id
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"numeric not lexicographic", "1.10", "1.9", 1},
		{"equal", "1.2", "1.2", 0},
		{"smaller", "1.2", "1.3", -1},
		{"prefix sorts first", "1", "1.1", -1},
		{"top level", "10", "9.9", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(mustIdent(t, tt.a), mustIdent(t, tt.b))
			if (got > 0) != (tt.want > 0) || (got < 0) != (tt.want < 0) {
				t.Errorf("Compare(%q, %q) = %d, want sign of %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIdent_IsChildOf(t *testing.T) {
	tests := []struct {
		name          string
		child, parent string
		want          bool
	}{
		{"direct child", "1.2 A", "1 B", true},
		{"other parent", "1.2 A", "2 B", false},
		{"self", "1.2 A", "1.2 A", false},
		{"grandchild", "1.2.3 A", "1 B", true},
		{"reversed", "1 B", "1.2 A", false},
		{"same depth", "1.3 A", "1.2 B", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustIdent(t, tt.child).IsChildOf(mustIdent(t, tt.parent))
			if got != tt.want {
				t.Errorf("IsChildOf(%q, %q) = %v, want %v", tt.child, tt.parent, got, tt.want)
			}
		})
	}

	if !mustIdent(t, "1 B").IsParentOf(mustIdent(t, "1.2 A")) {
		t.Error("expected 1 to be parent of 1.2")
	}
}

func TestIdent_Siblings(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		wantRight bool
		wantLeft  bool
	}{
		{"later sibling", "1.3", "1.2", true, false},
		{"earlier sibling", "1.2", "1.3", false, true},
		{"top level", "2", "1", true, false},
		{"equal", "1.2", "1.2", false, false},
		{"different stem", "2.3", "1.2", false, false},
		{"different depth", "1.2.1", "1.2", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := mustIdent(t, tt.a), mustIdent(t, tt.b)
			if got := a.IsRightSiblingOf(b); got != tt.wantRight {
				t.Errorf("IsRightSiblingOf(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.wantRight)
			}
			if got := a.IsLeftSiblingOf(b); got != tt.wantLeft {
				t.Errorf("IsLeftSiblingOf(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.wantLeft)
			}
		})
	}
}

func TestGrammar_IdentMalformed(t *testing.T) {
	_, err := DefaultGrammar().Ident("Introduction")
	if !errors.Is(err, ErrMalformedTitle) {
		t.Fatalf("expected ErrMalformedTitle, got %v", err)
	}
}

func TestIdent_Equal(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.2 A", "1.2 B", true},
		{"1.2 A", "1.20 B", false},
		{"1 A", "1.0 B", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			if got := mustIdent(t, tt.a).Equal(mustIdent(t, tt.b)); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdent_String(t *testing.T) {
	id := mustIdent(t, "1.20.3 Section Title")
	if id.String() != "1.20.3" {
		t.Errorf("expected %q, got %q", "1.20.3", id.String())
	}
	if id.Depth() != 3 {
		t.Errorf("expected depth 3, got %d", id.Depth())
	}
}

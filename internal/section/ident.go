package section

import (
	"slices"
	"strconv"
	"strings"
)

// Ident is the dotted numeric prefix of a section title: "1.2.3" is [1 2 3].
// Components compare as integers, so 1.10 sorts after 1.9.
type Ident []int

// Depth is the number of components.
func (id Ident) Depth() int { return len(id) }

// String renders the identifier in dotted form.
func (id Ident) String() string {
	parts := make([]string, len(id))
	for i, n := range id {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Compare orders identifiers component-wise. A strict prefix sorts before
// its extensions ("1" < "1.1").
func Compare(a, b Ident) int {
	return slices.Compare(a, b)
}

// Equal reports whether both identifiers have the same components.
func (id Ident) Equal(other Ident) bool {
	return slices.Equal(id, other)
}

// IsChildOf reports whether other is a strict prefix of id. Any depth counts:
// 1.2.3 is a child of 1.
func (id Ident) IsChildOf(other Ident) bool {
	return len(id) > len(other) && id[:len(other)].Equal(other)
}

// IsParentOf is the inverse of IsChildOf.
func (id Ident) IsParentOf(other Ident) bool {
	return other.IsChildOf(id)
}

// IsLeftSiblingOf reports whether id and other share every component but the
// last and id's last component is smaller.
func (id Ident) IsLeftSiblingOf(other Ident) bool {
	if !id.sameStem(other) {
		return false
	}
	return id[len(id)-1] < other[len(other)-1]
}

// IsRightSiblingOf reports whether id and other share every component but the
// last and id's last component is larger.
func (id Ident) IsRightSiblingOf(other Ident) bool {
	if !id.sameStem(other) {
		return false
	}
	return id[len(id)-1] > other[len(other)-1]
}

func (id Ident) sameStem(other Ident) bool {
	if len(id) == 0 || len(id) != len(other) {
		return false
	}
	return id[:len(id)-1].Equal(other[:len(other)-1])
}

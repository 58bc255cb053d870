package section

import (
	"strings"

	"github.com/dgallion1/sectiongest/internal/doctree"
)

// PartPlaceholder is rewritten to "part k/n" when a section is split.
const PartPlaceholder = "part 1/1"

// Lineage returns the titles from the top-level ancestor down to id.
func (f *Forest) Lineage(id NodeID) []string {
	var titles []string
	for cur := id; cur != None; cur = f.Node(cur).Parent {
		titles = append(titles, f.Node(cur).Title)
	}
	for i, j := 0, len(titles)-1; i < j; i, j = i+1, j-1 {
		titles[i], titles[j] = titles[j], titles[i]
	}
	return titles
}

// Header renders the lineage line that starts every chunk, without the
// trailing newline.
func Header(lineage []string) string {
	return "In section: " + strings.Join(lineage, " -> ") + ", " + PartPlaceholder + ":"
}

// Annotate prefixes the node's content with its lineage header.
func (f *Forest) Annotate(id NodeID) string {
	return Header(f.Lineage(id)) + "\n" + f.Node(id).Content
}

// DocTree copies the forest into nested doctree nodes.
func (f *Forest) DocTree(title string) *doctree.DocTree {
	tree := &doctree.DocTree{Title: title}
	for _, r := range f.Roots {
		tree.Children = append(tree.Children, f.docNode(r))
	}
	return tree
}

func (f *Forest) docNode(id NodeID) *doctree.DocNode {
	n := f.Node(id)
	out := &doctree.DocNode{
		Number:     n.Ident.String(),
		Title:      n.Title,
		Text:       n.Content,
		HasContent: n.HasContent,
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, f.docNode(c))
	}
	return out
}

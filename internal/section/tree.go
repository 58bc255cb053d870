package section

import (
	"fmt"
	"log/slog"
)

// NodeID indexes a node in its Forest.
type NodeID int

// None marks an absent parent or right sibling.
const None NodeID = -1

// Node is one section. Parent and RightSibling are indices into the owning
// Forest; Children lists every node attached below this one in sorted order.
type Node struct {
	Title        string
	Ident        Ident
	Content      string
	HasContent   bool
	Parent       NodeID
	RightSibling NodeID
	Children     []NodeID
}

// Forest is the section tree of one document. Top-level sections are listed
// in Roots and chained through RightSibling; there is no synthetic root.
type Forest struct {
	nodes []Node

	// Roots are the top-level nodes in order.
	Roots []NodeID
	// Placed lists nodes in the order their titles were placed.
	Placed []NodeID
	// Discarded holds titles that could not be attached.
	Discarded []string
}

// Len returns the number of nodes.
func (f *Forest) Len() int { return len(f.nodes) }

// Node returns the node for id.
func (f *Forest) Node(id NodeID) *Node { return &f.nodes[id] }

func (f *Forest) add(title string, id Ident) NodeID {
	f.nodes = append(f.nodes, Node{
		Title:        title,
		Ident:        id,
		Parent:       None,
		RightSibling: None,
	})
	return NodeID(len(f.nodes) - 1)
}

// SetParent links child to parent. A node's parent is set once.
func (f *Forest) SetParent(child, parent NodeID) error {
	n := f.Node(child)
	if n.Parent != None {
		return fmt.Errorf("parent of %q: %w", n.Title, ErrRelationSet)
	}
	n.Parent = parent
	return nil
}

// SetRightSibling links id to the next node at its level. It is set once.
func (f *Forest) SetRightSibling(id, sibling NodeID) error {
	n := f.Node(id)
	if n.RightSibling != None {
		return fmt.Errorf("right sibling of %q: %w", n.Title, ErrRelationSet)
	}
	n.RightSibling = sibling
	return nil
}

// AddChild appends child under parent and sets its parent link.
func (f *Forest) AddChild(parent, child NodeID) error {
	if err := f.SetParent(child, parent); err != nil {
		return err
	}
	p := f.Node(parent)
	p.Children = append(p.Children, child)
	return nil
}

// addRightSibling chains sibling after left and gives it left's parent.
func (f *Forest) addRightSibling(left, sibling NodeID) error {
	if err := f.SetRightSibling(left, sibling); err != nil {
		return err
	}
	parent := f.Node(left).Parent
	if parent == None {
		f.Roots = append(f.Roots, sibling)
		return nil
	}
	return f.AddChild(parent, sibling)
}

// Build assembles the forest from titles sorted by identifier in one forward
// pass. Each title is tried as a child of the cursor, then as the cursor's
// right sibling, then as a child of the nearest ancestor that accepts it,
// then as the right sibling of the top-level ancestor. A title that fits
// none of these is discarded and the cursor stays where it was.
func Build(g *Grammar, titles []string, log *slog.Logger) (*Forest, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("%w: empty title list", ErrNoSectionsFound)
	}

	f := &Forest{}
	first, err := g.Ident(titles[0])
	if err != nil {
		return nil, err
	}
	cursor := f.add(titles[0], first)
	f.Roots = append(f.Roots, cursor)
	f.Placed = append(f.Placed, cursor)

	for _, title := range titles[1:] {
		id, err := g.Ident(title)
		if err != nil {
			return nil, err
		}

		var linkErr error
		var node NodeID
		cur := f.Node(cursor)
		switch {
		case id.IsChildOf(cur.Ident):
			node = f.add(title, id)
			linkErr = f.AddChild(cursor, node)
		case id.IsRightSiblingOf(cur.Ident):
			node = f.add(title, id)
			linkErr = f.addRightSibling(cursor, node)
		default:
			anc := cursor
			for !id.IsChildOf(f.Node(anc).Ident) && f.Node(anc).Parent != None {
				anc = f.Node(anc).Parent
			}
			switch {
			case id.IsChildOf(f.Node(anc).Ident):
				node = f.add(title, id)
				linkErr = f.AddChild(anc, node)
			case id.IsRightSiblingOf(f.Node(anc).Ident):
				node = f.add(title, id)
				linkErr = f.addRightSibling(anc, node)
			default:
				log.Info("discarding section", "title", title, "cursor", cur.Title)
				f.Discarded = append(f.Discarded, title)
				continue
			}
		}
		if linkErr != nil {
			log.Warn("section link", "title", title, "error", linkErr)
		}

		parentTitle := "(no parent section)"
		if p := f.Node(node).Parent; p != None {
			parentTitle = f.Node(p).Title
		}
		log.Debug("placed section", "parent", parentTitle, "title", title)

		f.Placed = append(f.Placed, node)
		cursor = node
	}
	return f, nil
}

// Search finds the first node titled title: a node, then its subtree, then
// the subtrees of the nodes to its right. Right siblings are also listed as
// their parent's children, so walking Children covers the sibling chain.
func (f *Forest) Search(title string) (NodeID, bool) {
	for _, r := range f.Roots {
		if id, ok := f.search(r, title); ok {
			return id, true
		}
	}
	return None, false
}

func (f *Forest) search(id NodeID, title string) (NodeID, bool) {
	n := f.Node(id)
	if n.Title == title {
		return id, true
	}
	for _, c := range n.Children {
		if found, ok := f.search(c, title); ok {
			return found, true
		}
	}
	return None, false
}

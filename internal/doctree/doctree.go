package doctree

// DocTree is the section forest of a parsed document.
type DocTree struct {
	Title    string     `json:"title"`    // Document title (from metadata or filename)
	Children []*DocNode `json:"children"` // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Number     string     `json:"number"`             // Dotted number, e.g. "1.2.3"
	Title      string     `json:"title"`              // Full title line including the number
	Text       string     `json:"text,omitempty"`     // Content span, starting at the title
	HasContent bool       `json:"has_content"`        // False for the last section and unassigned nodes
	Children   []*DocNode `json:"children,omitempty"` // Subsections
}

// Chunk is a bounded, lineage-annotated segment ready for embedding.
type Chunk struct {
	Text       string   `json:"text"`       // Header line followed by body
	Index      int      `json:"index"`      // Sequence number within document
	Breadcrumb []string `json:"breadcrumb"` // Section lineage, e.g. ["1 Intro", "1.2 Scope"]
	Part       int      `json:"part"`       // 1-based part within the section
	Parts      int      `json:"parts"`      // Number of parts the section was split into
}

package section

import "errors"

var (
	// ErrNoSectionsFound means extraction matched nothing, or validation
	// rejected every candidate. The document yields no chunks.
	ErrNoSectionsFound = errors.New("no sections found")

	// ErrMalformedTitle means a title has no leading dotted number.
	ErrMalformedTitle = errors.New("malformed section title")

	// ErrRelationSet is returned when a parent or right-sibling link is
	// assigned to a node that already has one.
	ErrRelationSet = errors.New("relation already set")
)

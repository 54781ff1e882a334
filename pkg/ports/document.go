package ports

import "github.com/aretw0/quill/pkg/domain"

// Document is the capability set required from a rich-text engine.
// Any editor satisfying it is substitutable.
type Document interface {
	// Selection returns the current selection range.
	Selection() domain.SelectionRange

	// TextBetween returns the plain text in [start, end), with block
	// boundaries replaced by joiner.
	TextBetween(start, end int, joiner string) string

	// InsertContentAtCursor inserts text at the cursor (replacing or following
	// the selection, per the engine's insertion semantics).
	InsertContentAtCursor(text string) error
}

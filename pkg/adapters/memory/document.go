package memory

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/aretw0/quill/pkg/domain"
)

var (
	// ErrOutOfRange is returned when a selection falls outside the document.
	ErrOutOfRange = errors.New("selection out of range")

	// ErrNotFound is returned by SelectText when the text does not occur.
	ErrNotFound = errors.New("text not found in document")

	// ErrDisposed is returned when the document has been closed.
	ErrDisposed = errors.New("document disposed")
)

// BlockSeparator marks a block boundary in the linear representation.
const BlockSeparator = '\n'

// InsertMode selects how InsertContentAtCursor treats a non-empty selection.
type InsertMode int

const (
	// ModeReplace replaces the selection, like a rich-text editor does.
	ModeReplace InsertMode = iota
	// ModeAppend keeps the selection and inserts after its end.
	ModeAppend
)

// ParseInsertMode resolves "replace" or "append".
func ParseInsertMode(s string) (InsertMode, error) {
	switch s {
	case "", "replace":
		return ModeReplace, nil
	case "append":
		return ModeAppend, nil
	}
	return ModeReplace, fmt.Errorf("unknown insert mode %q", s)
}

// Document is a block-structured plain-text document implementing
// ports.Document. Offsets count runes; each block boundary occupies exactly
// one position. Safe for concurrent use.
type Document struct {
	mu       sync.RWMutex
	text     []rune
	sel      domain.SelectionRange
	mode     InsertMode
	disposed bool
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithInsertMode sets the insertion semantics.
func WithInsertMode(mode InsertMode) DocumentOption {
	return func(d *Document) {
		d.mode = mode
	}
}

// NewDocument creates a document from text. Line breaks delimit blocks.
// The cursor starts at the beginning with nothing selected.
func NewDocument(text string, opts ...DocumentOption) *Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	d := &Document{text: []rune(text)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromBlocks creates a document with one block per argument.
func NewFromBlocks(blocks ...string) *Document {
	return NewDocument(strings.Join(blocks, string(BlockSeparator)))
}

// Select sets the selection. Reversed offsets are normalized.
func (d *Document) Select(start, end int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel := domain.SelectionRange{Start: start, End: end}.Normalize()
	if sel.Start < 0 || sel.End > len(d.text) {
		return fmt.Errorf("%w: [%d, %d) in document of length %d", ErrOutOfRange, sel.Start, sel.End, len(d.text))
	}
	d.sel = sel
	return nil
}

// SelectText selects the first occurrence of s.
func (d *Document) SelectText(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty search text", ErrNotFound)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	idx := strings.Index(string(d.text), s)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, s)
	}
	start := utf8.RuneCountInString(string(d.text)[:idx])
	d.sel = domain.SelectionRange{Start: start, End: start + utf8.RuneCountInString(s)}
	return nil
}

// Selection returns the current selection range.
func (d *Document) Selection() domain.SelectionRange {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sel
}

// TextBetween returns the text in [start, end) with every block boundary
// replaced by joiner. Offsets are clamped to the document.
func (d *Document) TextBetween(start, end int, joiner string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	start, end = d.clamp(start, end)
	var b strings.Builder
	for _, r := range d.text[start:end] {
		if r == BlockSeparator {
			b.WriteString(joiner)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InsertContentAtCursor inserts text according to the insert mode and
// collapses the cursor to the end of the inserted content.
func (d *Document) InsertContentAtCursor(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return ErrDisposed
	}

	ins := []rune(strings.ReplaceAll(text, "\r\n", "\n"))
	at, cut := d.sel.Start, d.sel.End
	if d.mode == ModeAppend {
		at = d.sel.End
		cut = d.sel.End
	}

	next := make([]rune, 0, len(d.text)+len(ins))
	next = append(next, d.text[:at]...)
	next = append(next, ins...)
	next = append(next, d.text[cut:]...)

	d.text = next
	cursor := at + len(ins)
	d.sel = domain.SelectionRange{Start: cursor, End: cursor}
	return nil
}

// Text returns the full document text with blocks separated by newlines.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return string(d.text)
}

// Blocks returns the document's blocks.
func (d *Document) Blocks() []string {
	return strings.Split(d.Text(), string(BlockSeparator))
}

// Len returns the number of positions in the document.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.text)
}

// Close disposes the document. Further insertions fail with ErrDisposed.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disposed = true
	return nil
}

func (d *Document) clamp(start, end int) (int, int) {
	if start > end {
		start, end = end, start
	}
	start = max(start, 0)
	end = min(end, len(d.text))
	if start > end {
		start = end
	}
	return start, end
}

package runtime

import (
	"fmt"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
)

// InsertAtSelection writes text into the document at the cursor.
// It is not idempotent: each call inserts once.
func InsertAtSelection(doc ports.Document, text string) error {
	if err := doc.InsertContentAtCursor(text); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDocumentMutation, err)
	}
	return nil
}

package runtime

import "github.com/aretw0/quill/pkg/ports"

// BlockJoiner separates text from adjacent blocks so multi-paragraph
// selections do not collapse into one run-on word.
const BlockJoiner = " "

// ExtractSelection returns the selected text exactly as the document slices it.
// It reports false when nothing is selected.
func ExtractSelection(doc ports.Document) (string, bool) {
	sel := doc.Selection().Normalize()
	if sel.Empty() {
		return "", false
	}
	text := doc.TextBetween(sel.Start, sel.End, BlockJoiner)
	if text == "" {
		return "", false
	}
	return text, true
}

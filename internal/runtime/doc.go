// Package runtime implements the selection-to-transformation lifecycle:
// extracting the selected text, driving the single request state cell through
// Idle, Loading, Succeeded/Failed and back to Idle, and writing the result into
// the document.
package runtime

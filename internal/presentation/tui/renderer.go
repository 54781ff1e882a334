package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Results such as bullet-point summaries come back as markdown.
func NewRenderer(wordWrap int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if wordWrap > 0 {
		opts = append(opts, glamour.WithWordWrap(wordWrap))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PlainRenderer returns text unchanged, for pipes and files.
func PlainRenderer(text string) (string, error) {
	return text, nil
}

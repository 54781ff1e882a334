package service

import (
	"fmt"
	"strings"

	"github.com/aretw0/quill/pkg/domain"
)

// TextPlaceholder marks where the selected text goes in a prompt template.
const TextPlaceholder = "{{text}}"

// DefaultPrompts are the built-in templates, one per action.
var DefaultPrompts = map[domain.ActionKind]string{
	domain.ActionRewrite:    "Rewrite this text professionally and clearly:\n\n" + TextPlaceholder,
	domain.ActionSummarize:  "Summarize this text in 3 short bullet points:\n\n" + TextPlaceholder,
	domain.ActionFixGrammar: "Fix grammar and spelling mistakes in this text:\n\n" + TextPlaceholder,
}

// PromptSet maps actions to templates.
type PromptSet map[domain.ActionKind]string

// NewPromptSet returns the defaults overlaid with overrides keyed by wire name.
func NewPromptSet(overrides map[string]string) (PromptSet, error) {
	set := make(PromptSet, len(DefaultPrompts))
	for action, tmpl := range DefaultPrompts {
		set[action] = tmpl
	}
	for name, tmpl := range overrides {
		action, err := domain.ParseAction(name)
		if err != nil {
			return nil, fmt.Errorf("prompt override: %w", err)
		}
		if !strings.Contains(tmpl, TextPlaceholder) {
			return nil, fmt.Errorf("prompt override for %s: missing %s placeholder", name, TextPlaceholder)
		}
		set[action] = tmpl
	}
	return set, nil
}

// Build renders the prompt for action.
func (p PromptSet) Build(action domain.ActionKind, text string) (string, error) {
	tmpl, ok := p[action]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownAction, action)
	}
	return strings.ReplaceAll(tmpl, TextPlaceholder, text), nil
}

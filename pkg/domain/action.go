package domain

import (
	"fmt"
	"strings"
)

// ActionKind identifies a named transformation applied by the service.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionRewrite
	ActionSummarize
	ActionFixGrammar
)

var actionWireNames = map[ActionKind]string{
	ActionRewrite:    "rewrite",
	ActionSummarize:  "summarize",
	ActionFixGrammar: "grammar",
}

var actionLabels = map[ActionKind]string{
	ActionRewrite:    "Rewrite",
	ActionSummarize:  "Summarize",
	ActionFixGrammar: "Fix Grammar",
}

// Actions returns every supported action in presentation order.
func Actions() []ActionKind {
	return []ActionKind{ActionRewrite, ActionSummarize, ActionFixGrammar}
}

// ParseAction resolves a wire name ("rewrite", "summarize", "grammar").
// Matching is exact; anything else is rejected with ErrUnknownAction.
func ParseAction(s string) (ActionKind, error) {
	for kind, name := range actionWireNames {
		if name == s {
			return kind, nil
		}
	}
	return ActionUnknown, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Valid reports whether a is one of the supported actions.
func (a ActionKind) Valid() bool {
	_, ok := actionWireNames[a]
	return ok
}

// String returns the wire name of the action.
func (a ActionKind) String() string {
	if name, ok := actionWireNames[a]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(a))
}

// Label returns the human readable name shown on triggers.
func (a ActionKind) Label() string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return "Unknown"
}

// MarshalText encodes the action as its wire name.
func (a ActionKind) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText decodes a wire name.
func (a *ActionKind) UnmarshalText(text []byte) error {
	kind, err := ParseAction(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*a = kind
	return nil
}

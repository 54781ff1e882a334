package domain

import "fmt"

// TransformationRequest is the body sent to the transformation service.
type TransformationRequest struct {
	Action ActionKind `json:"action"`
	Text   string     `json:"text"`
}

// Validate checks the request before it reaches the wire.
func (r TransformationRequest) Validate() error {
	if !r.Action.Valid() {
		return fmt.Errorf("%w: %w: %s", ErrInvalidRequest, ErrUnknownAction, r.Action)
	}
	if r.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyText)
	}
	return nil
}

// TransformationResponse is a successful service reply.
// Result is never empty; a reply without one is an error, not a response.
type TransformationResponse struct {
	Result string `json:"result"`
}

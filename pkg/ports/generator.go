package ports

import "context"

// Generator turns a prompt into model output. It backs the reference
// transformation service, not the client-side core.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

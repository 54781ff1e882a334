package ports

import (
	"context"

	"github.com/aretw0/quill/pkg/domain"
)

// Transformer performs one exchange with the transformation service.
// Implementations must not retry or cache; errors are *domain.TransformError.
type Transformer interface {
	Submit(ctx context.Context, req domain.TransformationRequest) (domain.TransformationResponse, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(ctx context.Context, req domain.TransformationRequest) (domain.TransformationResponse, error)

// Submit calls f(ctx, req).
func (f TransformerFunc) Submit(ctx context.Context, req domain.TransformationRequest) (domain.TransformationResponse, error) {
	return f(ctx, req)
}

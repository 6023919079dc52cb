package render

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/definition"
)

// Renderer converts a live form instance into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, inst *definition.Instance, options RenderOptions) ([]byte, error)
}

// Package ports defines interfaces for external service communication.
package ports

import "context"

// TextGenerator is a single-call text-generation backend.
// The call timeout is carried by ctx. Failures worth retrying wrap
// entities.ErrTransientGeneration.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

package ports

import "context"

// Embedder turns timeline descriptions and search queries into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions is the size of the vectors Embed returns.
	Dimensions() uint64
}

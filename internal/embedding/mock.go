package embedding

import (
	"context"
	"crypto/sha256"
)

const mockDimensions = 1536

// MockClient produces deterministic pseudo-embeddings derived from the input
// text. Useful for local development and tests where no API key is available.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	seed := sha256.Sum256([]byte(text))
	out := make([]float32, mockDimensions)
	for i := range out {
		b := seed[i%len(seed)]
		out[i] = (float32(b)/255.0)*2 - 1
	}
	return out, nil
}

// Package llm defines the completion client interface for SudoDev.
package llm

import "context"

// Client is a minimal interface for making LLM completion calls.
// Implementations provide the transport to a specific provider. Callers do
// not retry transport failures; a failed call fails the phase that made it.
type Client interface {
	GetCompletion(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

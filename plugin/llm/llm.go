// Package llm wraps the external language-model provider behind a small
// interface so request handlers can be tested with fakes.
package llm

import "context"

// Client is a chat-completion plus text-embedding provider.
type Client interface {
	// Complete runs a single system+user chat completion and returns the
	// assistant's text.
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
	// Embed returns a fixed-dimension embedding vector for the text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

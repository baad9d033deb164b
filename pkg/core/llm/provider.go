// Package llm abstracts the hosted text-generation providers used by
// the extraction and narrative layers. The pricing engine itself never
// touches a provider; everything here runs before or after it.
package llm

import "context"

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into a
	// model-specific format before sending.
	AdaptInstructions(rawInstructions string) string
}

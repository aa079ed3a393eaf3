// Package models contains shared data models used across the costlab codebase.
package models

import (
	"context"
	"fmt"
)

// LLMProvider is the core interface that all LLM integrations must implement.
// Callers depend on this interface, never on a concrete provider.
type LLMProvider interface {
	// Generate sends a single prompt and returns the raw completion text.
	Generate(ctx context.Context, prompt string) (string, error)
	// Name returns the provider identifier ("gemini" or "openai").
	Name() string
	// Model returns the model the provider was configured with.
	Model() string
}

// ProviderError carries the structured failure details a provider API returned.
// StatusCode is the HTTP status; Code is the provider's own status or error code
// (for example "RESOURCE_EXHAUSTED" or "invalid_api_key").
type ProviderError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: status %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

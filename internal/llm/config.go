// Package llm provides the model-call seam between the discovery engine and
// LLM providers. The engine depends only on the Client interface; providers
// are interchangeable behind it.
package llm

import "time"

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderScripted replays canned replies; used for tests and offline demos
	ProviderScripted Provider = "scripted"
)

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Model    string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Model:    "gemini-1.5-flash-latest",
	}
}

// GenerateOptions controls a single model call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
	// Timeout bounds the individual call; zero means no per-call deadline
	// beyond whatever the caller's context carries.
	Timeout time.Duration
}

// DefaultGenerateOptions returns the options used for conversational turns.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		MaxTokens:   1024,
		Temperature: 0.4,
		Timeout:     30 * time.Second,
	}
}

package generation

import "context"

// Role constants for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in the conversation sent to the provider.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// Params holds the sampling parameters for one completion.
type Params struct {
	Temperature float32
	TopP        float32
	MaxTokens   int

	// JSONMode asks the provider to constrain output to a JSON document when it supports it.
	JSONMode bool
}

// Request is a single completion call as seen by a provider.
type Request struct {
	Model    string
	Messages []Message
	Params   Params
}

// Provider is implemented by adapters that perform the actual network call to an LLM.
// Implementations must be safe for concurrent use and must mark failures that may
// succeed on retry with ErrTransientFailure.
type Provider interface {
	// Name returns the provider identifier, e.g. "gemini" or "openai".
	Name() string

	// Endpoint returns a stable identifier of the upstream endpoint, used to key
	// the circuit breaker.
	Endpoint() string

	// Complete sends the request and returns the raw model text.
	Complete(ctx context.Context, req Request) (string, error)
}

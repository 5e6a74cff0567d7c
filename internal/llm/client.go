// Package llm provides the text completion client used by the responder and
// the appointment extractor. Retrieval-augmented prompting and structured
// extraction both reduce to one Complete call with different request shapes.
package llm

import "context"

// Role constants for messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a Complete call.
type CompletionRequest struct {
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`

	// JSONObject asks the backend for a single JSON object response,
	// used by structured extraction.
	JSONObject bool `json:"jsonObject,omitempty"`
}

// Client is the interface completion providers implement.
type Client interface {
	// Complete sends a request and returns the assistant's text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name returns the provider name.
	Name() string
}

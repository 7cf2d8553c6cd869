// Package provider defines the unified interface and shared types for LLM
// completion providers. Each adapter (anthropic.go, openai.go) normalizes a
// vendor API into the same non-streaming request/response shape.
package provider

import "context"

// ── Message types ────────────────────────────────────────────────────────────

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ── Request / Response ───────────────────────────────────────────────────────

// Request is the unified completion request sent to a provider.
type Request struct {
	Model        string
	Messages     []Message
	SystemPrompt string
	MaxTokens    int
}

// Response holds the assistant reply and token usage.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Provider is a single LLM completion backend.
type Provider interface {
	// Name returns the provider identifier (e.g. "anthropic", "openai").
	Name() string

	// DefaultModel returns the model used when the request does not set one.
	DefaultModel() string

	// Complete sends the full conversation and returns the assistant reply.
	// Blocks until the upstream responds or ctx is cancelled.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

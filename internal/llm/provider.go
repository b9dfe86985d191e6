package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured output from a language model. Every
// consumer in this module (the recommendation service, the CLI) talks to a
// Provider and never to an SDK directly.
type Provider interface {
	// Generate sends req and returns the model's output. When req.Schema is
	// set the provider asks for JSON matching it and validates the result
	// before returning.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID names the model requests are sent to.
	ModelID() string
}

// Request is a single-turn or multi-turn prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, requests structured JSON output. When nil the
	// response Content is the raw text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Name is kebab-case and doubles as the
// tool or schema name on providers that need one.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a provider's output.
type Response struct {
	// Content is validated JSON when the request had a schema.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Usage is the token accounting of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

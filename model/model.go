package model

import (
	"context"
	"fmt"
	"sync"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem carries standing instructions for the model.
	RoleSystem Role = "system"
	// RoleUser carries customer or engine supplied input.
	RoleUser Role = "user"
	// RoleAssistant carries model output, including tool call requests.
	RoleAssistant Role = "assistant"
	// RoleTool carries the result of an executed tool call.
	RoleTool Role = "tool"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Message is a single conversation turn in provider-neutral form. Assistant
// messages may carry ToolCalls; tool messages echo the originating call id in
// ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Request captures the normalized model input produced by the engines.
type Request struct {
	Instructions string           `json:"instructions"`
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final completion returned by a provider.
type Response struct {
	Text         string      `json:"text"`
	ToolCalls    []ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a client implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Client is the minimal interface the engines require to drive generation.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the client implementation.
	Info() Info
}

// ScriptedClient is a lightweight in-memory Client useful for tests and
// examples. It returns queued responses in order and falls back to a canned
// completion once the queue is exhausted.
type ScriptedClient struct {
	info     Info
	mu       sync.Mutex
	queue    []Response
	fallback string
	requests []Request
}

// NewScriptedClient constructs a ScriptedClient with tool support enabled.
func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{
		info: Info{
			Name:          "scripted",
			Provider:      "scripted",
			SupportsTools: true,
		},
		fallback: "Scripted response.",
	}
}

// Enqueue appends responses to the script, returned in FIFO order.
func (c *ScriptedClient) Enqueue(responses ...Response) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, responses...)
	return c
}

// EnqueueText is shorthand for queueing a plain text completion.
func (c *ScriptedClient) EnqueueText(texts ...string) *ScriptedClient {
	for _, t := range texts {
		c.Enqueue(Response{Text: t, FinishReason: "stop"})
	}
	return c
}

// SetFallback overrides the completion used once the queue is empty.
func (c *ScriptedClient) SetFallback(text string) { c.fallback = text }

// Requests returns a copy of every request seen so far.
func (c *ScriptedClient) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, len(c.requests))
	copy(out, c.requests)
	return out
}

// Complete implements Client.
func (c *ScriptedClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)

	if len(c.queue) > 0 {
		resp := c.queue[0]
		c.queue = c.queue[1:]
		return &resp, nil
	}
	return &Response{Text: c.fallback, FinishReason: "stop"}, nil
}

// Info implements Client.
func (c *ScriptedClient) Info() Info { return c.info }

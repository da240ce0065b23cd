package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ToolDeclaration describes one tool offered to the backend. Parameters is a
// JSON Schema object (type/properties/required) in map form; each provider
// adapter converts it to the shape its SDK expects.
type ToolDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Response is one backend exchange result. A response carries text content,
// tool calls, or both; Usage is nil when the backend reports no accounting.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     *Usage
}

// LLMClient is the contract every model backend adapter satisfies. Send
// performs one full request/response exchange; streaming backends collect
// their stream before returning.
type LLMClient interface {
	// Send submits the transcript and available tools and returns the
	// backend's reply. The context bounds the whole exchange.
	Send(ctx context.Context, messages []Message, tools []ToolDeclaration) (*Response, error)
	// ModelID returns the backend model identifier, e.g. "gpt-4o".
	ModelID() string
	// ContextWindow returns the model's context window size in tokens.
	ContextWindow() int
	// IsTransientError reports whether err is worth retrying: rate limits,
	// timeouts, overloaded upstreams.
	IsTransientError(err error) bool
}

// FallbackClient wraps an ordered list of clients. Each Send walks the list:
// transient failures are retried on the same client up to MaxRetries times,
// then the next client is tried. Non-transient errors fail over immediately.
type FallbackClient struct {
	clients    []LLMClient
	maxRetries int
	retryDelay time.Duration
}

// NewFallbackClient builds a FallbackClient over the given clients.
// maxRetries below 1 is treated as 1.
func NewFallbackClient(clients []LLMClient, maxRetries int, retryDelay time.Duration) *FallbackClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &FallbackClient{clients: clients, maxRetries: maxRetries, retryDelay: retryDelay}
}

// Send tries each wrapped client in order until one succeeds.
func (f *FallbackClient) Send(ctx context.Context, messages []Message, tools []ToolDeclaration) (*Response, error) {
	var lastErr error
	for _, client := range f.clients {
		for attempt := 1; attempt <= f.maxRetries; attempt++ {
			resp, err := client.Send(ctx, messages, tools)
			if err == nil {
				return resp, nil
			}
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !client.IsTransientError(err) {
				slog.Warn("backend failed, trying next", "model", client.ModelID(), "error", err.Error())
				break
			}
			slog.Warn("transient backend error, retrying", "model", client.ModelID(), "attempt", attempt, "error", err.Error())
			if attempt < f.maxRetries {
				select {
				case <-time.After(f.retryDelay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no clients configured")
	}
	return nil, lastErr
}

// ModelID returns the identifier of the primary client.
func (f *FallbackClient) ModelID() string {
	if len(f.clients) == 0 {
		return ""
	}
	return f.clients[0].ModelID()
}

// ContextWindow returns the primary client's context window.
func (f *FallbackClient) ContextWindow() int {
	if len(f.clients) == 0 {
		return 0
	}
	return f.clients[0].ContextWindow()
}

// IsTransientError defers to the primary client.
func (f *FallbackClient) IsTransientError(err error) bool {
	if len(f.clients) == 0 {
		return false
	}
	return f.clients[0].IsTransientError(err)
}

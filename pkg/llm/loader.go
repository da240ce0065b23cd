package llm

import (
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GroupConfig is the parsed "llm" section of the application config. The
// providers are an ordered fallback chain; the first is the primary model.
type GroupConfig struct {
	Providers []ProviderConfig `json:"providers"`
}

// NewFromConfig parses the raw "llm" config block and builds the client
// stack. A single provider yields its client directly; multiple providers
// are wrapped in a FallbackClient with the given retry policy.
func NewFromConfig(raw jsoniter.RawMessage, maxRetries int, retryDelay time.Duration) (LLMClient, error) {
	var group GroupConfig
	if err := json.Unmarshal(raw, &group); err != nil {
		return nil, fmt.Errorf("failed to parse llm config: %w", err)
	}
	if len(group.Providers) == 0 {
		return nil, fmt.Errorf("llm config defines no providers")
	}

	clients := make([]LLMClient, 0, len(group.Providers))
	for _, pc := range group.Providers {
		factory, ok := GetProviderFactory(pc.Provider)
		if !ok {
			return nil, fmt.Errorf("unknown llm provider %q (registered: %v)", pc.Provider, RegisteredProviders())
		}
		client, err := factory(pc)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s client: %w", pc.Provider, err)
		}
		slog.Info("llm provider initialized", "provider", pc.Provider, "model", client.ModelID())
		clients = append(clients, client)
	}

	if len(clients) == 1 {
		return clients[0], nil
	}
	return NewFallbackClient(clients, maxRetries, retryDelay), nil
}

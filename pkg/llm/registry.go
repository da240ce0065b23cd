package llm

import (
	"fmt"
	"sync"
)

// ProviderConfig is the per-backend block from the "llm.providers" config
// list. Fields a given provider does not use are simply ignored by its
// factory.
type ProviderConfig struct {
	// Provider names the adapter: "openai", "anthropic", "gemini", "ollama".
	Provider string `json:"provider"`
	// Model is the backend model identifier.
	Model string `json:"model"`
	// APIKey authenticates against the provider. Ollama ignores it.
	APIKey string `json:"api_key"`
	// BaseURL overrides the provider endpoint when set.
	BaseURL string `json:"base_url"`
	// ContextWindow overrides the model's known context window in tokens.
	// Zero means use the adapter's built-in table.
	ContextWindow int `json:"context_window"`
}

// Factory constructs a client from its config block.
type Factory func(cfg ProviderConfig) (LLMClient, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// RegisterProvider makes a provider factory available under the given name.
// Adapters call this from their init functions; importing an adapter package
// is all that is needed to enable it.
func RegisterProvider(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("llm: provider %q registered twice", name))
	}
	registry[name] = factory
}

// GetProviderFactory looks up a registered factory by name.
func GetProviderFactory(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// RegisteredProviders returns the names of all registered factories.
func RegisteredProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

package llm

import (
	"testing"
	"time"
)

func init() {
	RegisterProvider("fake", func(cfg ProviderConfig) (LLMClient, error) {
		return &scriptClient{id: cfg.Model}, nil
	})
}

func TestNewFromConfigSingleProvider(t *testing.T) {
	raw := []byte(`{"providers":[{"provider":"fake","model":"fake-small"}]}`)

	client, err := NewFromConfig(raw, 3, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if client.ModelID() != "fake-small" {
		t.Errorf("unexpected model %q", client.ModelID())
	}
	// A single provider is returned directly, not wrapped.
	if _, ok := client.(*FallbackClient); ok {
		t.Error("single provider should not be wrapped in a fallback client")
	}
}

func TestNewFromConfigFallbackChain(t *testing.T) {
	raw := []byte(`{"providers":[
		{"provider":"fake","model":"fake-large"},
		{"provider":"fake","model":"fake-small"}
	]}`)

	client, err := NewFromConfig(raw, 3, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := client.(*FallbackClient); !ok {
		t.Fatal("multiple providers should build a fallback client")
	}
	if client.ModelID() != "fake-large" {
		t.Errorf("primary model should lead the chain, got %q", client.ModelID())
	}
}

func TestNewFromConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty providers", `{"providers":[]}`},
		{"unknown provider", `{"providers":[{"provider":"nope","model":"m"}]}`},
		{"invalid json", `{"providers":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFromConfig([]byte(tc.raw), 1, 0); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

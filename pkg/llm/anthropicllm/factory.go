package anthropicllm

import (
	"fmt"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

func init() {
	llm.RegisterProvider("anthropic", func(cfg llm.ProviderConfig) (llm.LLMClient, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an api_key")
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("anthropic provider requires a model")
		}
		return NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.ContextWindow)
	})
}

package openaillm

import (
	"fmt"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

func init() {
	llm.RegisterProvider("openai", func(cfg llm.ProviderConfig) (llm.LLMClient, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api_key")
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("openai provider requires a model")
		}
		return NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.ContextWindow)
	})
}

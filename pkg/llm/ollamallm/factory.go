package ollamallm

import (
	"fmt"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

func init() {
	llm.RegisterProvider("ollama", func(cfg llm.ProviderConfig) (llm.LLMClient, error) {
		if cfg.Model == "" {
			return nil, fmt.Errorf("ollama provider requires a model")
		}
		return NewClient(cfg.Model, cfg.BaseURL, cfg.ContextWindow)
	})
}

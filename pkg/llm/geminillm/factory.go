package geminillm

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newCallID() string {
	return utils.GenerateToolCallID()
}

func init() {
	llm.RegisterProvider("gemini", func(cfg llm.ProviderConfig) (llm.LLMClient, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an api_key")
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("gemini provider requires a model")
		}
		return NewClient(context.Background(), cfg.APIKey, cfg.Model, cfg.ContextWindow)
	})
}

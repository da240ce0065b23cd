package tools

import (
	"context"
	"fmt"
)

// EchoTool returns its input unchanged. Useful for wiring checks and as the
// simplest possible tool example.
type EchoTool struct{}

func (t *EchoTool) Name() string {
	return "echo"
}

func (t *EchoTool) Description() string {
	return "Return the given text unchanged."
}

func (t *EchoTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "The text to echo back",
			},
		},
		"required": []string{"text"},
	}
}

func (t *EchoTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	text, ok := args["text"].(string)
	if !ok {
		return "", fmt.Errorf("missing required argument 'text'")
	}
	return text, nil
}

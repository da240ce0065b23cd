package anthropicllm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	jsoniter "github.com/json-iterator/go"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultContextWindow = 200000
	defaultMaxTokens     = 4096
)

// Client wraps the official Anthropic Go SDK.
type Client struct {
	client        *anthropic.Client
	model         anthropic.Model
	contextWindow int
}

// NewClient creates an Anthropic client.
func NewClient(apiKey string, model string, baseURL string, contextWindow int) (*Client, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := anthropic.NewClient(opts...)

	if contextWindow == 0 {
		contextWindow = defaultContextWindow
	}

	return &Client{
		client:        &client,
		model:         anthropic.Model(model),
		contextWindow: contextWindow,
	}, nil
}

func (c *Client) ModelID() string {
	return string(c.model)
}

func (c *Client) ContextWindow() int {
	return c.contextWindow
}

func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") {
		return true
	}
	if strings.Contains(msg, "529") || strings.Contains(msg, "overloaded") {
		return true
	}
	if strings.Contains(msg, "500") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused") {
		return true
	}

	return false
}

// Send performs a single non-streaming exchange against the Messages API.
func (c *Client) Send(ctx context.Context, messages []llm.Message, tools []llm.ToolDeclaration) (*llm.Response, error) {
	anthropicMessages, systemBlocks := convertMessages(messages)

	params := anthropic.MessageNewParams{
		Model:     c.model,
		Messages:  anthropicMessages,
		MaxTokens: defaultMaxTokens,
	}

	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}

	if converted := convertTools(tools); len(converted) > 0 {
		params.Tools = converted
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &llm.Response{
		Usage: &llm.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}

	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Content += variant.Text
		case anthropic.ToolUseBlock:
			result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: string(variant.Input),
			})
		}
	}

	return result, nil
}

// convertMessages converts the transcript to Anthropic format. System
// messages become system blocks; tool results travel as user-role
// tool_result blocks.
func convertMessages(messages []llm.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	anthropicMsgs := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{
				Text: msg.Content,
			})

		case llm.RoleUser:
			anthropicMsgs = append(anthropicMsgs,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)),
			)

		case llm.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				anthropicMsgs = append(anthropicMsgs, anthropic.NewAssistantMessage(blocks...))
			}

		case llm.RoleTool:
			anthropicMsgs = append(anthropicMsgs,
				anthropic.NewUserMessage(anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false)),
			)
		}
	}

	return anthropicMsgs, systemBlocks
}

func convertTools(tools []llm.ToolDeclaration) []anthropic.ToolUnionParam {
	converted := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Properties: t.Parameters["properties"],
		}
		if required, ok := t.Parameters["required"].([]string); ok {
			inputSchema.Required = required
		} else if rawRequired, ok := t.Parameters["required"].([]any); ok {
			for _, r := range rawRequired {
				if s, ok := r.(string); ok {
					inputSchema.Required = append(inputSchema.Required, s)
				}
			}
		}

		param := anthropic.ToolUnionParamOfTool(inputSchema, t.Name)
		if t.Description != "" {
			param.OfTool.Description = anthropic.String(t.Description)
		}
		converted = append(converted, param)
	}
	return converted
}

package openaillm

import (
	"context"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

// contextWindows maps model name prefixes to their context window in tokens.
var contextWindows = map[string]int{
	"gpt-4o":      128000,
	"gpt-4.1":     1047576,
	"gpt-5":       400000,
	"o1":          200000,
	"o3":          200000,
	"gpt-4-turbo": 128000,
	"gpt-4":       8192,
	"gpt-3.5":     16385,
}

const defaultContextWindow = 128000

// Client is a wrapper around the official OpenAI Go SDK.
type Client struct {
	client        *openai.Client
	model         string
	contextWindow int
}

// NewClient creates a new OpenAI client.
func NewClient(apiKey string, model string, baseURL string, contextWindow int) (*Client, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)

	if contextWindow == 0 {
		contextWindow = lookupContextWindow(model)
	}

	return &Client{
		client:        &client,
		model:         model,
		contextWindow: contextWindow,
	}, nil
}

func lookupContextWindow(model string) int {
	best := 0
	window := defaultContextWindow
	for prefix, w := range contextWindows {
		if strings.HasPrefix(model, prefix) && len(prefix) > best {
			best = len(prefix)
			window = w
		}
	}
	return window
}

func (c *Client) ModelID() string {
	return c.model
}

func (c *Client) ContextWindow() int {
	return c.contextWindow
}

func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	// Transient: network-level issues
	if strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") {
		return true
	}

	// Transient: server-side temporary failures
	if strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "500 internal") ||
		strings.Contains(msg, "502 bad gateway") ||
		strings.Contains(msg, "503 service unavailable") ||
		strings.Contains(msg, "overloaded") {
		return true
	}

	// Everything else (400 Bad Request, 401 Unauthorized, etc.) is non-transient
	return false
}

// Send performs a single non-streaming exchange against the Responses API.
func (c *Client) Send(ctx context.Context, messages []llm.Message, tools []llm.ToolDeclaration) (*llm.Response, error) {
	params := responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: convertMessages(messages),
		},
	}

	if converted := convertTools(tools); len(converted) > 0 {
		params.Tools = converted
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &llm.Response{
		Content: resp.OutputText(),
	}

	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
			ID:        item.CallID,
			Name:      item.Name,
			Arguments: item.Arguments,
		})
	}

	if resp.Usage.TotalTokens > 0 {
		result.Usage = &llm.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		}
	}

	return result, nil
}

func convertMessages(messages []llm.Message) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			items = append(items, responses.ResponseInputItemParamOfMessage(
				m.Content,
				responses.EasyInputMessageRoleSystem,
			))
		case llm.RoleUser:
			items = append(items, responses.ResponseInputItemParamOfMessage(
				m.Content,
				responses.EasyInputMessageRoleUser,
			))
		case llm.RoleAssistant:
			if m.Content != "" {
				items = append(items, responses.ResponseInputItemParamOfMessage(
					m.Content,
					responses.EasyInputMessageRoleAssistant,
				))
			}
			for _, tc := range m.ToolCalls {
				items = append(items, responses.ResponseInputItemParamOfFunctionCall(
					tc.Arguments,
					tc.ID,
					tc.Name,
				))
			}
		case llm.RoleTool:
			items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(
				m.ToolCallID,
				m.Content,
			))
		}
	}

	return items
}

func convertTools(tools []llm.ToolDeclaration) []responses.ToolUnionParam {
	converted := make([]responses.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		converted = append(converted, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.Parameters,
			},
		})
	}
	return converted
}

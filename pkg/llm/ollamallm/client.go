package ollamallm

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/ollama/ollama/api"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultContextWindow = 8192

// Client wraps the Ollama API client.
type Client struct {
	client        *api.Client
	model         string
	contextWindow int
}

// NewClient creates an Ollama client. baseURL falls back to the environment
// configuration when empty. Local models load slowly, so the underlying HTTP
// client carries no response timeout; callers bound requests via context.
func NewClient(model string, baseURL string, contextWindow int) (*Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 0,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   0,
	}

	var client *api.Client
	var err error
	if baseURL != "" {
		u, parseErr := url.Parse(baseURL)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid base URL: %w", parseErr)
		}
		client = api.NewClient(u, httpClient)
	} else {
		client, err = api.ClientFromEnvironment()
	}
	if err != nil {
		return nil, err
	}

	if contextWindow == 0 {
		contextWindow = defaultContextWindow
	}

	return &Client{
		client:        client,
		model:         model,
		contextWindow: contextWindow,
	}, nil
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
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") {
		return true
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "overloaded") {
		return true
	}
	return false
}

// Send performs a single non-streaming chat exchange.
func (c *Client) Send(ctx context.Context, messages []llm.Message, tools []llm.ToolDeclaration) (*llm.Response, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: convertMessages(messages),
		Tools:    convertTools(tools),
		Stream:   &stream,
	}

	var result llm.Response
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		result.Content += resp.Message.Content

		for _, tc := range resp.Message.ToolCalls {
			argsB, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				argsB = []byte("{}")
			}
			result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: string(argsB),
			})
		}

		if resp.Done {
			result.Usage = &llm.Usage{
				InputTokens:  resp.PromptEvalCount,
				OutputTokens: resp.EvalCount,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// convertMessages converts the transcript to Ollama API format.
func convertMessages(messages []llm.Message) []api.Message {
	ollamaMsgs := make([]api.Message, 0, len(messages))

	for _, m := range messages {
		msg := api.Message{
			Role:    string(m.Role),
			Content: m.Content,
		}

		if m.Role == llm.RoleAssistant && len(m.ToolCalls) > 0 {
			var calls []api.ToolCall
			for _, tc := range m.ToolCalls {
				// The SDK carries arguments as a typed map; round-trip the
				// JSON string through it.
				var apiArgs api.ToolCallFunctionArguments
				if err := json.Unmarshal([]byte(tc.Arguments), &apiArgs); err != nil {
					_ = json.Unmarshal([]byte("{}"), &apiArgs)
				}
				calls = append(calls, api.ToolCall{
					ID: tc.ID,
					Function: api.ToolCallFunction{
						Name:      tc.Name,
						Arguments: apiArgs,
					},
				})
			}
			msg.ToolCalls = calls
		}

		if m.Role == llm.RoleTool {
			msg.ToolCallID = m.ToolCallID
		}

		ollamaMsgs = append(ollamaMsgs, msg)
	}

	return ollamaMsgs
}

// convertTools round-trips declarations through JSON into api.Tool, working
// around the SDK's nested parameter types.
func convertTools(tools []llm.ToolDeclaration) []api.Tool {
	if len(tools) == 0 {
		return nil
	}

	raw := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		raw = append(raw, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}

	rawB, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var converted []api.Tool
	if err := json.Unmarshal(rawB, &converted); err != nil {
		return nil
	}
	return converted
}

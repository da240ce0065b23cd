package geminillm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

// contextWindows maps model name prefixes to their context window in tokens.
var contextWindows = map[string]int{
	"gemini-2.5": 1048576,
	"gemini-2.0": 1048576,
	"gemini-1.5": 1048576,
	"gemini-1.0": 32768,
}

const defaultContextWindow = 1048576

// Client wraps the Google GenAI SDK.
type Client struct {
	client        *genai.Client
	model         string
	contextWindow int
}

// NewClient creates a Gemini client against the public Gemini API backend.
func NewClient(ctx context.Context, apiKey string, model string, contextWindow int) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	if contextWindow == 0 {
		contextWindow = defaultContextWindow
		for prefix, w := range contextWindows {
			if strings.HasPrefix(model, prefix) {
				contextWindow = w
				break
			}
		}
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

	if strings.Contains(msg, "503") || strings.Contains(msg, "overloaded") {
		return true
	}
	if strings.Contains(msg, "429") || strings.Contains(msg, "resource exhausted") {
		return true
	}
	if strings.Contains(msg, "500") || strings.Contains(msg, "internal error") {
		return true
	}

	return false
}

// Send performs a single non-streaming exchange.
func (c *Client) Send(ctx context.Context, messages []llm.Message, tools []llm.ToolDeclaration) (*llm.Response, error) {
	contents, systemInstruction := convertMessages(messages)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Tools:             convertTools(tools),
	})
	if err != nil {
		return nil, err
	}

	result := &llm.Response{}

	if resp.UsageMetadata != nil {
		result.Usage = &llm.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				result.Content += part.Text
			}
			if part.FunctionCall != nil {
				argsB, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					argsB = []byte("{}")
				}
				id := part.FunctionCall.ID
				if id == "" {
					// Gemini often omits call ids; mint one so the tool
					// result can be matched back.
					id = newCallID()
				}
				result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
					ID:        id,
					Name:      part.FunctionCall.Name,
					Arguments: string(argsB),
				})
			}
		}
	}

	return result, nil
}

// convertMessages converts the transcript to GenAI contents plus the system
// instruction. Gemini carries tool results as user-role FunctionResponse
// parts and assistant turns under the "model" role.
func convertMessages(messages []llm.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var systemParts []string

	callNames := make(map[string]string)

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			// A conversation can carry several system messages, e.g. the
			// persona plus a summary of the previous session. All of them
			// belong in the system instruction.
			if msg.Content != "" {
				systemParts = append(systemParts, msg.Content)
			}

		case llm.RoleUser:
			if msg.Content != "" {
				contents = append(contents, &genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: msg.Content}},
				})
			}

		case llm.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					args = map[string]any{}
				}
				callNames[tc.ID] = tc.Name
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: args,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{
					Role:  "model",
					Parts: parts,
				})
			}

		case llm.RoleTool:
			name := msg.Name
			if name == "" {
				name = callNames[msg.ToolCallID]
			}
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{
					{
						FunctionResponse: &genai.FunctionResponse{
							ID:       msg.ToolCallID,
							Name:     name,
							Response: map[string]any{"result": msg.Content},
						},
					},
				},
			})
		}
	}

	var systemInstruction *genai.Content
	if len(systemParts) > 0 {
		systemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(systemParts, "\n\n")}},
		}
	}
	return contents, systemInstruction
}

func convertTools(tools []llm.ToolDeclaration) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	fds := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
		}
		if t.Parameters != nil {
			schemaB, err := json.Marshal(t.Parameters)
			if err == nil {
				var schema genai.Schema
				if err := json.Unmarshal(schemaB, &schema); err == nil {
					fd.Parameters = &schema
				}
			}
		}
		fds = append(fds, fd)
	}

	return []*genai.Tool{{FunctionDeclarations: fds}}
}

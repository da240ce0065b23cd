package tools

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/memory"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ConversationManager is the slice of the engine the memory tools need.
// Defined here so the tools package does not depend on the engine.
type ConversationManager interface {
	ConversationID() string
	ListConversations() ([]memory.ConversationInfo, error)
	LoadConversation(conversationID string) error
	DeleteConversation(conversationID string) error
}

// RegisterMemoryTools adds the conversation management tools backed by mgr.
func RegisterMemoryTools(r *Registry, mgr ConversationManager) error {
	for _, t := range []Tool{
		&listConversationsTool{mgr: mgr},
		&conversationIDTool{mgr: mgr},
		&loadConversationTool{mgr: mgr},
		&deleteConversationTool{mgr: mgr},
	} {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

type listConversationsTool struct {
	mgr ConversationManager
}

func (t *listConversationsTool) Name() string {
	return "list_conversations"
}

func (t *listConversationsTool) Description() string {
	return "List all stored conversations with their id, message count and last update time."
}

func (t *listConversationsTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *listConversationsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	infos, err := t.mgr.ListConversations()
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "No stored conversations.", nil
	}
	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type conversationIDTool struct {
	mgr ConversationManager
}

func (t *conversationIDTool) Name() string {
	return "get_conversation_id"
}

func (t *conversationIDTool) Description() string {
	return "Return the id of the current conversation."
}

func (t *conversationIDTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *conversationIDTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return t.mgr.ConversationID(), nil
}

type loadConversationTool struct {
	mgr ConversationManager
}

func (t *loadConversationTool) Name() string {
	return "load_conversation"
}

func (t *loadConversationTool) Description() string {
	return "Switch the current session to a previously stored conversation."
}

func (t *loadConversationTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"conversation_id": map[string]any{
				"type":        "string",
				"description": "The id of the conversation to load",
			},
		},
		"required": []string{"conversation_id"},
	}
}

func (t *loadConversationTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	id, ok := args["conversation_id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("missing required argument 'conversation_id'")
	}
	if err := t.mgr.LoadConversation(id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Loaded conversation %s.", id), nil
}

type deleteConversationTool struct {
	mgr ConversationManager
}

func (t *deleteConversationTool) Name() string {
	return "delete_conversation"
}

func (t *deleteConversationTool) Description() string {
	return "Delete a stored conversation. The active conversation cannot be deleted."
}

func (t *deleteConversationTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"conversation_id": map[string]any{
				"type":        "string",
				"description": "The id of the conversation to delete",
			},
		},
		"required": []string{"conversation_id"},
	}
}

func (t *deleteConversationTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	id, ok := args["conversation_id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("missing required argument 'conversation_id'")
	}
	if err := t.mgr.DeleteConversation(id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted conversation %s.", id), nil
}

// Package engine drives the tool-calling conversation loop: it owns the
// in-memory transcript, dispatches tool calls, checkpoints to the store and
// collapses long conversations into summaries.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/config"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/memory"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/tools"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Engine is one conversation session. All public methods are safe for
// concurrent use; the turn mutex serializes turns so the transcript never
// interleaves.
type Engine struct {
	mu sync.Mutex

	client   llm.LLMClient
	registry *tools.Registry
	store    memory.Provider
	sysCfg   *config.SystemConfig

	systemPrompt string
	messages     []llm.Message

	// toolMu guards the fields the memory tools touch mid-turn, while mu
	// is still held by SendMessage. Lock order is always mu before toolMu.
	toolMu         sync.Mutex
	conversationID string
	pendingLoad    string
	saveErr        error

	// savedCount is how many buffer messages the store has already seen;
	// checkpoints pass only the tail beyond it.
	savedCount int
	// turnsSinceCheckpoint counts user turns, not messages.
	turnsSinceCheckpoint int

	// Running token totals across the conversation.
	usage llm.Usage
}

// New creates an engine with a fresh conversation.
func New(client llm.LLMClient, registry *tools.Registry, store memory.Provider, sysCfg *config.SystemConfig, systemPrompt string) *Engine {
	e := &Engine{
		client:       client,
		registry:     registry,
		store:        store,
		sysCfg:       sysCfg,
		systemPrompt: systemPrompt,
	}
	e.reset()
	return e
}

// reset starts a fresh conversation buffer. Caller holds the lock (or is
// the constructor).
func (e *Engine) reset() {
	e.setConversationID(uuid.NewString())
	e.messages = e.messages[:0]
	if e.systemPrompt != "" {
		e.messages = append(e.messages, llm.NewSystemMessage(e.systemPrompt))
	}
	e.savedCount = 0
	e.turnsSinceCheckpoint = 0
	e.usage = llm.Usage{}
}

// ConversationID returns the id of the active conversation. It does not
// take the turn mutex, so it is safe to call from a tool running inside a
// turn.
func (e *Engine) ConversationID() string {
	e.toolMu.Lock()
	defer e.toolMu.Unlock()
	return e.conversationID
}

// setConversationID is called with the turn mutex held.
func (e *Engine) setConversationID(id string) {
	e.toolMu.Lock()
	e.conversationID = id
	e.toolMu.Unlock()
}

// LastSaveError reports the most recent checkpoint failure, or nil if the
// last checkpoint succeeded. It is cleared by the next successful save.
func (e *Engine) LastSaveError() error {
	e.toolMu.Lock()
	defer e.toolMu.Unlock()
	return e.saveErr
}

// Usage returns the running token totals for the active conversation.
func (e *Engine) Usage() llm.Usage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usage
}

// SendMessage runs one user turn: it appends the user message, exchanges
// with the backend, dispatches any tool calls and repeats until the backend
// answers with plain text. The final assistant text is returned.
//
// Backend failures return a *BackendError with the user message still in
// the buffer, so the same turn can be retried. Tool execution failures are
// not errors at this level; they are reported to the model as the tool
// result so it can react.
func (e *Engine) SendMessage(ctx context.Context, text string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.applyPendingLoadLocked()

	e.messages = append(e.messages, llm.NewUserMessage(text))
	e.turnsSinceCheckpoint++
	e.checkpointIfDue()

	declarations := e.declarations()

	var lastUsage *llm.Usage
	for round := 0; round < e.sysCfg.MaxToolRounds; round++ {
		e.messages = llm.ValidateMessages(e.messages)

		resp, err := e.send(ctx, e.messages, declarations)
		if err != nil {
			return "", &BackendError{Model: e.client.ModelID(), Err: err}
		}

		if resp.Usage != nil {
			e.usage.InputTokens += resp.Usage.InputTokens
			e.usage.OutputTokens += resp.Usage.OutputTokens
			lastUsage = resp.Usage
		}

		assistant := llm.NewAssistantMessage(resp.Content, normalizeToolCalls(resp.ToolCalls))
		assistant.Usage = resp.Usage
		e.messages = append(e.messages, assistant)

		if len(assistant.ToolCalls) == 0 {
			e.checkpointIfDue()
			if e.summarizeDue(lastUsage) {
				if err := e.summarize(ctx); err != nil {
					slog.Warn("summarization failed, keeping full transcript", "conversation", e.conversationID, "error", err.Error())
				}
			}
			return resp.Content, nil
		}

		for _, call := range assistant.ToolCalls {
			tool, ok := e.registry.Get(call.Name)
			if !ok {
				return "", &UnknownToolError{Name: call.Name}
			}
			result := e.executeTool(ctx, tool, call)
			e.messages = append(e.messages, llm.NewToolMessage(call.ID, call.Name, result))
		}
	}

	return "", fmt.Errorf("conversation %s exceeded %d tool rounds", e.conversationID, e.sysCfg.MaxToolRounds)
}

func (e *Engine) send(ctx context.Context, messages []llm.Message, declarations []llm.ToolDeclaration) (*llm.Response, error) {
	if e.sysCfg.LLMTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.sysCfg.LLMTimeoutMs)*time.Millisecond)
		defer cancel()
	}
	return e.client.Send(ctx, messages, declarations)
}

func (e *Engine) declarations() []llm.ToolDeclaration {
	if !e.sysCfg.EnableTools {
		return nil
	}
	return tools.Declarations(e.registry.List())
}

// executeTool runs one tool call. Argument parse failures, execution errors,
// timeouts and panics all degrade to a textual result for the model.
func (e *Engine) executeTool(ctx context.Context, tool tools.Tool, call llm.ToolCall) (result string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool panicked", "tool", call.Name, "panic", fmt.Sprintf("%v", r))
			result = fmt.Sprintf("Error: tool %s crashed: %v", call.Name, r)
		}
	}()

	var args map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			slog.Warn("tool arguments are not valid JSON", "tool", call.Name, "error", err.Error())
			return fmt.Sprintf("Error: arguments for %s are not valid JSON: %v", call.Name, err)
		}
	}

	if e.sysCfg.ToolTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.sysCfg.ToolTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	slog.Debug("executing tool", "tool", call.Name, "call_id", call.ID)
	output, err := tool.Execute(ctx, args)
	if err != nil {
		slog.Warn("tool failed", "tool", call.Name, "error", err.Error())
		return fmt.Sprintf("Error: %v", err)
	}
	return output
}

// normalizeToolCalls strips the "functions." prefix some backends prepend
// to tool names.
func normalizeToolCalls(calls []llm.ToolCall) []llm.ToolCall {
	for i := range calls {
		calls[i].Name = strings.TrimPrefix(calls[i].Name, "functions.")
	}
	return calls
}

// checkpointIfDue saves the unsaved tail of the buffer once enough user
// turns have passed. Caller holds the lock.
func (e *Engine) checkpointIfDue() {
	if e.sysCfg.CheckpointInterval <= 0 {
		return
	}
	if e.turnsSinceCheckpoint < e.sysCfg.CheckpointInterval {
		return
	}
	if err := e.flushLocked(); err != nil {
		slog.Error("checkpoint failed", "conversation", e.conversationID, "error", err.Error())
		return
	}
	e.turnsSinceCheckpoint = 0
}

// flushLocked saves the unsaved tail. Caller holds the lock. Failures are
// also recorded so LastSaveError can report them after the turn.
func (e *Engine) flushLocked() error {
	if e.savedCount >= len(e.messages) {
		return nil
	}
	delta := e.messages[e.savedCount:]
	if err := e.store.SaveMessages(e.conversationID, delta); err != nil {
		e.toolMu.Lock()
		e.saveErr = err
		e.toolMu.Unlock()
		return err
	}
	e.toolMu.Lock()
	e.saveErr = nil
	e.toolMu.Unlock()
	e.savedCount = len(e.messages)
	slog.Debug("conversation checkpointed", "conversation", e.conversationID, "messages", len(e.messages))
	return nil
}

// Flush saves any unsaved messages immediately.
func (e *Engine) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushLocked()
}

// LoadConversation flushes the active conversation and replaces the buffer
// with a stored transcript.
func (e *Engine) LoadConversation(conversationID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(conversationID)
}

func (e *Engine) loadLocked(conversationID string) error {
	if conversationID == e.conversationID {
		return nil
	}

	if err := e.flushLocked(); err != nil {
		return fmt.Errorf("failed to flush active conversation: %w", err)
	}

	messages, err := e.store.LoadMessages(conversationID, 0)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return fmt.Errorf("conversation %s not found", conversationID)
	}

	e.setConversationID(conversationID)
	e.messages = messages
	e.savedCount = len(messages)
	e.turnsSinceCheckpoint = 0
	e.usage = llm.Usage{}
	slog.Info("conversation loaded", "conversation", conversationID, "messages", len(messages))
	return nil
}

// applyPendingLoadLocked switches to a conversation a tool asked for during
// the turn. Caller holds the lock.
func (e *Engine) applyPendingLoadLocked() {
	e.toolMu.Lock()
	id := e.pendingLoad
	e.pendingLoad = ""
	e.toolMu.Unlock()

	if id == "" || id == e.conversationID {
		return
	}
	if err := e.loadLocked(id); err != nil {
		slog.Error("deferred conversation load failed", "conversation", id, "error", err.Error())
	}
}

// ListConversations returns the stored conversations.
func (e *Engine) ListConversations() ([]memory.ConversationInfo, error) {
	return e.store.ListConversations()
}

// DeleteConversation removes a stored conversation. The active conversation
// is protected. Like ConversationID this never takes the turn mutex, so
// tools can call it mid-turn.
func (e *Engine) DeleteConversation(conversationID string) error {
	if conversationID == e.ConversationID() {
		return fmt.Errorf("cannot delete the active conversation %s", conversationID)
	}
	return e.store.DeleteConversation(conversationID)
}

// Close flushes the buffer and releases the store.
func (e *Engine) Close() error {
	if err := e.Flush(); err != nil {
		return err
	}
	return nil
}

// ToolManager is the conversation-manager view handed to the memory tools.
// Tools run inside a turn, while SendMessage still holds the turn mutex, so
// none of these methods may take it: reads come from the engine's id
// snapshot and loads are deferred until the turn completes.
type ToolManager struct {
	e *Engine
}

// ToolManager returns the view the memory tools should be registered with.
func (e *Engine) ToolManager() *ToolManager {
	return &ToolManager{e: e}
}

func (m *ToolManager) ConversationID() string {
	return m.e.ConversationID()
}

func (m *ToolManager) ListConversations() ([]memory.ConversationInfo, error) {
	return m.e.ListConversations()
}

func (m *ToolManager) DeleteConversation(conversationID string) error {
	return m.e.DeleteConversation(conversationID)
}

// LoadConversation validates the target and schedules the switch; the
// engine applies it once the current turn finishes.
func (m *ToolManager) LoadConversation(conversationID string) error {
	if conversationID == m.e.ConversationID() {
		return nil
	}
	messages, err := m.e.store.LoadMessages(conversationID, 0)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	m.e.toolMu.Lock()
	m.e.pendingLoad = conversationID
	m.e.toolMu.Unlock()
	return nil
}

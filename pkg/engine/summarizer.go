package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

const summaryInstruction = "You are a helpful assistant tasked with summarizing a conversation. " +
	"Create a concise summary that captures the key points, questions, decisions, and context " +
	"from the session. The summary should be informative enough that someone " +
	"reading it would understand what was discussed, what conclusions were reached, " +
	"and what important context should be carried forward. " +
	"Focus on preserving information that will be useful for continuing the conversation, " +
	"including names, technical terms, important numbers, and specific details that might " +
	"be referenced later. Avoid unnecessary details, repetitive information, or tangential discussions."

const summaryPrefix = "Previous conversation summary: "

// contextWindow returns the effective context window: the configured
// override when set, otherwise the model's own.
func (e *Engine) contextWindow() int {
	if e.sysCfg.ContextWindow > 0 {
		return e.sysCfg.ContextWindow
	}
	return e.client.ContextWindow()
}

// summarizeDue reports whether the conversation should be collapsed:
// either the last exchange consumed most of the context window, or the
// buffer crossed the message-count threshold. Caller holds the lock.
func (e *Engine) summarizeDue(lastUsage *llm.Usage) bool {
	if threshold := e.sysCfg.SummarizeMessageThreshold; threshold > 0 && len(e.messages) >= threshold {
		return true
	}
	window := e.contextWindow()
	if window <= 0 || lastUsage == nil {
		return false
	}
	return float64(lastUsage.Total()) >= e.sysCfg.SummarizeRatio*float64(window)
}

// summarize collapses the buffer: the full transcript is flushed under the
// old conversation id, summarized by the backend, and a fresh conversation
// starts whose first message carries the summary. Caller holds the lock.
func (e *Engine) summarize(ctx context.Context) error {
	transcript := renderTranscript(e.messages)
	if transcript == "" {
		return nil
	}

	resp, err := e.send(ctx, []llm.Message{
		llm.NewSystemMessage(summaryInstruction),
		llm.NewUserMessage("Please summarize the following session:\n\n" + transcript),
	}, nil)
	if err != nil {
		return fmt.Errorf("summary request failed: %w", err)
	}
	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return fmt.Errorf("backend returned an empty summary")
	}

	// Archive the full transcript under the old id before switching.
	if err := e.flushLocked(); err != nil {
		return fmt.Errorf("failed to archive conversation before summarizing: %w", err)
	}
	oldID := e.conversationID
	if err := e.store.SaveSummary(oldID, summary); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}

	e.setConversationID(uuid.NewString())
	e.messages = e.messages[:0]
	if e.systemPrompt != "" {
		e.messages = append(e.messages, llm.NewSystemMessage(e.systemPrompt))
	}
	e.messages = append(e.messages, llm.NewSystemMessage(summaryPrefix+summary))
	e.savedCount = 0
	e.turnsSinceCheckpoint = 0

	// The continuation must survive a restart, so persist it right away.
	if err := e.flushLocked(); err != nil {
		return fmt.Errorf("failed to persist continuation conversation: %w", err)
	}

	slog.Info("conversation summarized", "archived", oldID, "conversation", e.conversationID)
	return nil
}

// renderTranscript flattens the buffer into the plain-text form fed to the
// summarization prompt.
func renderTranscript(messages []llm.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			lines = append(lines, "System: "+msg.Content)
		case llm.RoleUser:
			lines = append(lines, "User: "+msg.Content)
		case llm.RoleAssistant:
			if msg.Content != "" {
				lines = append(lines, "Assistant: "+msg.Content)
			}
		case llm.RoleTool:
			lines = append(lines, fmt.Sprintf("Tool (%s): %s", msg.Name, msg.Content))
		}
	}
	return strings.Join(lines, "\n\n")
}

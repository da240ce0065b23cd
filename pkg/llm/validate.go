package llm

import (
	"log/slog"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/utils"
)

// ValidateMessages repairs a conversation transcript so that it satisfies the
// structural rules backends enforce: every tool-role message must answer a
// tool call issued by the assistant message before it, each tool call is
// answered at most once, and no two assistant messages share a tool call id.
//
// Transcripts drift into violation when saves race, loads overlap, or a turn
// is replayed after a crash. Rather than reject the conversation, the
// validator drops or rewrites the offending messages and logs each repair.
// Running it on an already-valid transcript returns it unchanged, so it is
// safe to apply on every load and before every save.
func ValidateMessages(messages []Message) []Message {
	result := make([]Message, 0, len(messages))

	seen := make(map[string]bool)      // message fingerprints already kept
	usedIDs := make(map[string]bool)   // tool call ids seen anywhere in the transcript
	available := make(map[string]bool) // call ids awaiting a tool result
	remap := make(map[string]string)   // reminted ids: original -> replacement

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		default:
			slog.Warn("dropping message with unknown role", "role", string(msg.Role))
			continue
		}

		fp := msg.Fingerprint()
		if seen[fp] {
			slog.Warn("dropping duplicate message", "role", string(msg.Role))
			continue
		}

		switch msg.Role {
		case RoleSystem, RoleUser:
			// A user or system message ends any pending tool exchange.
			// Unanswered calls before it can never be answered now.
			if len(available) > 0 {
				slog.Warn("tool calls left unanswered before non-tool message", "count", len(available))
			}
			available = make(map[string]bool)
			remap = make(map[string]string)

		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				calls := make([]ToolCall, len(msg.ToolCalls))
				copy(calls, msg.ToolCalls)
				for i := range calls {
					id := calls[i].ID
					if usedIDs[id] {
						// Another assistant message already owns this id.
						// Mint a fresh one and remember the mapping so the
						// matching tool result can follow it.
						newID := utils.GenerateToolCallID()
						slog.Warn("reminting duplicate tool call id", "old_id", id, "new_id", newID)
						remap[id] = newID
						id = newID
						calls[i].ID = newID
					}
					usedIDs[id] = true
					available[id] = true
				}
				msg.ToolCalls = calls
				fp = msg.Fingerprint()
				if seen[fp] {
					slog.Warn("dropping duplicate message", "role", string(msg.Role))
					continue
				}
			}

		case RoleTool:
			id := msg.ToolCallID
			if newID, ok := remap[id]; ok {
				msg.ToolCallID = newID
				id = newID
			}
			if !available[id] {
				slog.Warn("dropping tool message without matching call", "tool_call_id", msg.ToolCallID, "name", msg.Name)
				continue
			}
			// Each call is answered exactly once.
			delete(available, id)
			fp = msg.Fingerprint()
		}

		seen[fp] = true
		result = append(result, msg)
	}

	return result
}

package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

func TestSummarizeOnTokenPressure(t *testing.T) {
	client := &mockClient{
		window: 1000,
		responses: []*llm.Response{
			// The exchange lands above 80% of the context window.
			{Content: "a long answer", Usage: &llm.Usage{InputTokens: 700, OutputTokens: 150}},
			// The follow-up summarization request.
			{Content: "The user asked about weather; the assistant answered at length."},
		},
	}
	sysCfg := testSysCfg()
	e, store := newTestEngine(t, client, sysCfg)
	e.systemPrompt = "Be concise."
	oldID := e.ConversationID()

	reply, err := e.SendMessage(context.Background(), "tell me everything about the weather")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "a long answer" {
		t.Errorf("unexpected reply %q", reply)
	}

	newID := e.ConversationID()
	if newID == oldID {
		t.Fatal("conversation id should change after summarization")
	}

	// The fresh buffer carries the persona plus the summary system message.
	if len(e.messages) != 2 {
		t.Fatalf("expected 2 messages in fresh buffer, got %d", len(e.messages))
	}
	last := e.messages[len(e.messages)-1]
	if last.Role != llm.RoleSystem || !strings.HasPrefix(last.Content, summaryPrefix) {
		t.Errorf("fresh buffer does not start with the summary: %+v", last)
	}

	// The full transcript was archived under the old id.
	archived, err := store.LoadMessages(oldID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 2 {
		t.Errorf("expected 2 archived messages, got %d", len(archived))
	}

	summary, err := store.LoadSummary(oldID)
	if err != nil {
		t.Fatal(err)
	}
	if summary == "" {
		t.Error("summary was not stored")
	}

	// The continuation is persisted immediately, so a restart would pick
	// it up under the new id.
	continuation, err := store.LoadMessages(newID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(continuation) != 2 {
		t.Fatalf("expected 2 persisted continuation messages, got %d", len(continuation))
	}
	if continuation[0].Content != "Be concise." {
		t.Errorf("persona not persisted: %+v", continuation[0])
	}
	if !strings.HasPrefix(continuation[1].Content, summaryPrefix) {
		t.Errorf("summary message not persisted: %+v", continuation[1])
	}
}

func TestSummarizeOnMessageCount(t *testing.T) {
	client := &mockClient{
		responses: []*llm.Response{
			{Content: "one"},
			{Content: "two"},
			{Content: "a summary of the chat"},
		},
	}
	sysCfg := testSysCfg()
	sysCfg.SummarizeMessageThreshold = 4
	e, _ := newTestEngine(t, client, sysCfg)
	oldID := e.ConversationID()

	if _, err := e.SendMessage(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	if e.ConversationID() != oldID {
		t.Fatal("summarized too early")
	}

	// Second turn brings the buffer to 4 messages and trips the threshold.
	if _, err := e.SendMessage(context.Background(), "second"); err != nil {
		t.Fatal(err)
	}
	if e.ConversationID() == oldID {
		t.Error("expected summarization after crossing the message threshold")
	}
}

func TestSummarizeFailureKeepsConversation(t *testing.T) {
	client := &mockClient{
		window: 1000,
		responses: []*llm.Response{
			{Content: "big answer", Usage: &llm.Usage{InputTokens: 900, OutputTokens: 50}},
			// Empty summary makes summarization fail.
			{Content: ""},
		},
	}
	e, _ := newTestEngine(t, client, testSysCfg())
	oldID := e.ConversationID()

	reply, err := e.SendMessage(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "big answer" {
		t.Errorf("unexpected reply %q", reply)
	}
	// Summarization failed, but the turn succeeded and the conversation
	// continues under the same id.
	if e.ConversationID() != oldID {
		t.Error("conversation id changed despite summarization failure")
	}
	if len(e.messages) != 2 {
		t.Errorf("buffer should be untouched, got %d messages", len(e.messages))
	}
}

func TestRenderTranscript(t *testing.T) {
	messages := []llm.Message{
		llm.NewSystemMessage("persona"),
		llm.NewUserMessage("question"),
		llm.NewAssistantMessage("answer", nil),
		llm.NewToolMessage("call_1", "shell", "output"),
	}

	got := renderTranscript(messages)
	want := "System: persona\n\nUser: question\n\nAssistant: answer\n\nTool (shell): output"
	if got != want {
		t.Errorf("transcript mismatch:\n got: %q\nwant: %q", got, want)
	}
}

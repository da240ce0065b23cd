package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/memory"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&EchoTool{}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&EchoTool{}); err == nil {
		t.Error("duplicate registration should fail")
	}
	if err := r.Register(&ShellTool{}); err != nil {
		t.Fatal(err)
	}

	if _, ok := r.Get("echo"); !ok {
		t.Error("echo not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("unexpected tool found")
	}

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(list))
	}
	// Sorted by name.
	if list[0].Name() != "echo" || list[1].Name() != "shell" {
		t.Errorf("unexpected order: %s, %s", list[0].Name(), list[1].Name())
	}
}

func TestDeclarations(t *testing.T) {
	decls := Declarations([]Tool{&EchoTool{}})
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	if decls[0].Name != "echo" || decls[0].Description == "" {
		t.Errorf("declaration incomplete: %+v", decls[0])
	}
	if decls[0].Parameters["type"] != "object" {
		t.Errorf("parameters should be a JSON schema object: %+v", decls[0].Parameters)
	}
}

func TestEchoTool(t *testing.T) {
	tool := &EchoTool{}

	got, err := tool.Execute(context.Background(), map[string]any{"text": "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("unexpected output %q", got)
	}

	if _, err := tool.Execute(context.Background(), map[string]any{}); err == nil {
		t.Error("missing argument should fail")
	}
}

func TestShellTool(t *testing.T) {
	tool := &ShellTool{}

	got, err := tool.Execute(context.Background(), map[string]any{"command": "echo shell-works"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(got) != "shell-works" {
		t.Errorf("unexpected output %q", got)
	}

	if _, err := tool.Execute(context.Background(), map[string]any{}); err == nil {
		t.Error("missing command should fail")
	}

	if _, err := tool.Execute(context.Background(), map[string]any{"command": "exit 3"}); err == nil {
		t.Error("failing command should return an error")
	}
}

func TestShellToolHonorsContext(t *testing.T) {
	tool := &ShellTool{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := tool.Execute(ctx, map[string]any{"command": "sleep 5"}); err == nil {
		t.Error("expected a timeout error")
	}
}

// fakeManager implements ConversationManager for the memory tools.
type fakeManager struct {
	active  string
	infos   []memory.ConversationInfo
	loaded  string
	deleted string
}

func (f *fakeManager) ConversationID() string { return f.active }

func (f *fakeManager) ListConversations() ([]memory.ConversationInfo, error) {
	return f.infos, nil
}

func (f *fakeManager) LoadConversation(id string) error {
	f.loaded = id
	return nil
}

func (f *fakeManager) DeleteConversation(id string) error {
	if id == f.active {
		return fmt.Errorf("cannot delete the active conversation %s", id)
	}
	f.deleted = id
	return nil
}

func TestMemoryTools(t *testing.T) {
	mgr := &fakeManager{
		active: "conv-active",
		infos: []memory.ConversationInfo{
			{ID: "conv-old", MessageCount: 4, UpdatedAt: time.Now()},
		},
	}
	r := NewRegistry()
	if err := RegisterMemoryTools(r, mgr); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	idTool, _ := r.Get("get_conversation_id")
	got, err := idTool.Execute(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "conv-active" {
		t.Errorf("unexpected id %q", got)
	}

	listTool, _ := r.Get("list_conversations")
	out, err := listTool.Execute(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "conv-old") {
		t.Errorf("listing does not mention stored conversation: %q", out)
	}

	loadTool, _ := r.Get("load_conversation")
	if _, err := loadTool.Execute(ctx, map[string]any{"conversation_id": "conv-old"}); err != nil {
		t.Fatal(err)
	}
	if mgr.loaded != "conv-old" {
		t.Errorf("load not forwarded: %q", mgr.loaded)
	}

	deleteTool, _ := r.Get("delete_conversation")
	if _, err := deleteTool.Execute(ctx, map[string]any{"conversation_id": "conv-active"}); err == nil {
		t.Error("deleting the active conversation should fail")
	}
	if _, err := deleteTool.Execute(ctx, map[string]any{"conversation_id": "conv-old"}); err != nil {
		t.Fatal(err)
	}
	if mgr.deleted != "conv-old" {
		t.Errorf("delete not forwarded: %q", mgr.deleted)
	}
}

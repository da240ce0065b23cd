package gateway

import (
	"context"
	"testing"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/config"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/engine"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/memory"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/tools"
)

type staticClient struct {
	reply string
}

func (c *staticClient) Send(ctx context.Context, messages []llm.Message, decls []llm.ToolDeclaration) (*llm.Response, error) {
	return &llm.Response{Content: c.reply}, nil
}

func (c *staticClient) ModelID() string { return "static" }

func (c *staticClient) ContextWindow() int { return 100000 }

func (c *staticClient) IsTransientError(err error) bool { return false }

func newTestGateway(t *testing.T) (*Gateway, memory.Provider) {
	t.Helper()
	store, err := memory.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sysCfg := config.DefaultSystemConfig()
	sysCfg.CheckpointInterval = 0
	sysCfg.LLMTimeoutMs = 0

	sessions := engine.NewManager(func() *engine.Engine {
		return engine.New(&staticClient{reply: "hi"}, tools.NewRegistry(), store, sysCfg, "")
	})
	return New(sessions), store
}

func TestDispatchRoutesBySession(t *testing.T) {
	gw, _ := newTestGateway(t)

	a := SessionContext{Channel: "web", SessionKey: "conn-a"}
	b := SessionContext{Channel: "web", SessionKey: "conn-b"}

	if _, err := gw.Dispatch(context.Background(), a, "hello"); err != nil {
		t.Fatal(err)
	}
	if gw.Engine(a) == gw.Engine(b) {
		t.Error("distinct sessions must get distinct engines")
	}
	if gw.Engine(a) != gw.Engine(a) {
		t.Error("same session must reuse its engine")
	}
}

func TestRemoveReleasesSession(t *testing.T) {
	gw, store := newTestGateway(t)
	session := SessionContext{Channel: "web", SessionKey: "conn-1"}

	if _, err := gw.Dispatch(context.Background(), session, "hello"); err != nil {
		t.Fatal(err)
	}
	e := gw.Engine(session)
	conv := e.ConversationID()

	gw.Remove(session)

	// The session's transcript was flushed on the way out.
	stored, err := store.LoadMessages(conv, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Errorf("expected 2 flushed messages, got %d", len(stored))
	}

	// The key no longer maps to the old engine.
	if gw.Engine(session) == e {
		t.Error("removed session still mapped to its old engine")
	}
}

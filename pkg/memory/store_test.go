package memory

import (
	"testing"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

// runProviderTests exercises the Provider contract against any
// implementation.
func runProviderTests(t *testing.T, newStore func(t *testing.T) Provider) {
	t.Run("RoundTrip", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		messages := []llm.Message{
			llm.NewUserMessage("hello"),
			llm.NewAssistantMessage("hi there", nil),
		}
		if err := store.SaveMessages("conv-1", messages); err != nil {
			t.Fatal(err)
		}

		got, err := store.LoadMessages("conv-1", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(got))
		}
		if got[0].Content != "hello" || got[1].Content != "hi there" {
			t.Errorf("content mismatch: %+v", got)
		}
	})

	t.Run("AppendMerges", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		first := []llm.Message{
			llm.NewUserMessage("one"),
			llm.NewAssistantMessage("1", nil),
		}
		second := []llm.Message{
			llm.NewUserMessage("two"),
			llm.NewAssistantMessage("2", nil),
		}
		if err := store.SaveMessages("conv-1", first); err != nil {
			t.Fatal(err)
		}
		if err := store.SaveMessages("conv-1", second); err != nil {
			t.Fatal(err)
		}

		got, err := store.LoadMessages("conv-1", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 4 {
			t.Fatalf("expected 4 messages after append, got %d", len(got))
		}
	})

	t.Run("ResaveIsIdempotent", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		messages := []llm.Message{
			llm.NewUserMessage("same"),
			llm.NewAssistantMessage("reply", nil),
		}
		if err := store.SaveMessages("conv-1", messages); err != nil {
			t.Fatal(err)
		}
		// Replaying the same save must not duplicate messages.
		if err := store.SaveMessages("conv-1", messages); err != nil {
			t.Fatal(err)
		}

		got, err := store.LoadMessages("conv-1", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("replayed save duplicated messages: got %d", len(got))
		}
	})

	t.Run("LoadWithLimit", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		messages := []llm.Message{
			llm.NewUserMessage("a"),
			llm.NewAssistantMessage("b", nil),
			llm.NewUserMessage("c"),
			llm.NewAssistantMessage("d", nil),
		}
		if err := store.SaveMessages("conv-1", messages); err != nil {
			t.Fatal(err)
		}

		got, err := store.LoadMessages("conv-1", 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(got))
		}
		if got[0].Content != "c" {
			t.Errorf("limit should keep the tail, got %q first", got[0].Content)
		}
	})

	t.Run("MissingConversation", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		got, err := store.LoadMessages("nope", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty result, got %d messages", len(got))
		}
	})

	t.Run("Summary", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		if err := store.SaveSummary("conv-1", "we talked about Go"); err != nil {
			t.Fatal(err)
		}
		got, err := store.LoadSummary("conv-1")
		if err != nil {
			t.Fatal(err)
		}
		if got != "we talked about Go" {
			t.Errorf("summary mismatch: %q", got)
		}

		missing, err := store.LoadSummary("nope")
		if err != nil {
			t.Fatal(err)
		}
		if missing != "" {
			t.Errorf("expected empty summary, got %q", missing)
		}
	})

	t.Run("ListAndDelete", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		for _, id := range []string{"conv-a", "conv-b"} {
			if err := store.SaveMessages(id, []llm.Message{llm.NewUserMessage("hi " + id)}); err != nil {
				t.Fatal(err)
			}
		}

		infos, err := store.ListConversations()
		if err != nil {
			t.Fatal(err)
		}
		if len(infos) != 2 {
			t.Fatalf("expected 2 conversations, got %d", len(infos))
		}
		for _, info := range infos {
			if info.MessageCount != 1 {
				t.Errorf("conversation %s: expected 1 message, got %d", info.ID, info.MessageCount)
			}
		}

		if err := store.DeleteConversation("conv-a"); err != nil {
			t.Fatal(err)
		}
		infos, err = store.ListConversations()
		if err != nil {
			t.Fatal(err)
		}
		if len(infos) != 1 || infos[0].ID != "conv-b" {
			t.Errorf("unexpected conversations after delete: %+v", infos)
		}

		// Deleting again is not an error.
		if err := store.DeleteConversation("conv-a"); err != nil {
			t.Errorf("double delete should be a no-op: %v", err)
		}
	})
}

func TestFileStore(t *testing.T) {
	runProviderTests(t, func(t *testing.T) Provider {
		store, err := NewFileStore(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		return store
	})
}

func TestSQLiteStore(t *testing.T) {
	runProviderTests(t, func(t *testing.T) Provider {
		store, err := NewSQLiteStore(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		return store
	})
}

func TestFileStoreRepairsCorruptSequence(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	// An orphan tool result sneaks in through a crashed writer; the store
	// repairs the transcript on save.
	messages := []llm.Message{
		llm.NewUserMessage("run it"),
		llm.NewToolMessage("call_orphan", "shell", "stale output"),
		llm.NewAssistantMessage("done", nil),
	}
	if err := store.SaveMessages("conv-1", messages); err != nil {
		t.Fatal(err)
	}

	got, err := store.LoadMessages("conv-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range got {
		if m.Role == llm.RoleTool {
			t.Error("orphan tool message survived the save")
		}
	}
}

package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessageShortTextUntouched(t *testing.T) {
	got := splitMessage("short", 100)
	if len(got) != 1 || got[0] != "short" {
		t.Errorf("unexpected chunks %v", got)
	}
}

func TestSplitMessageRespectsLimit(t *testing.T) {
	text := strings.Repeat("a", 250)
	got := splitMessage(text, 100)

	var total string
	for _, chunk := range got {
		if len([]rune(chunk)) > 100 {
			t.Errorf("chunk exceeds limit: %d runes", len([]rune(chunk)))
		}
		total += chunk
	}
	if total != text {
		t.Error("rejoined chunks do not reproduce the original text")
	}
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	text := strings.Repeat("x", 80) + "\n" + strings.Repeat("y", 80)
	got := splitMessage(text, 100)

	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if !strings.HasSuffix(got[0], "\n") {
		t.Error("first chunk should break at the newline")
	}
}

func TestSplitMessageZeroLimit(t *testing.T) {
	got := splitMessage("anything", 0)
	if len(got) != 1 {
		t.Errorf("zero limit should disable splitting, got %d chunks", len(got))
	}
}

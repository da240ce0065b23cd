package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore persists conversations as JSON files. Transcripts live under
// <root>/conversations/<id>.json and summaries under <root>/summaries/.
type FileStore struct {
	mu   sync.Mutex
	root string
}

// NewFileStore creates the store directories under root if needed.
func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{
		filepath.Join(root, "conversations"),
		filepath.Join(root, "summaries"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create memory directory: %w", err)
		}
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) conversationPath(id string) string {
	return filepath.Join(s.root, "conversations", id+".json")
}

func (s *FileStore) summaryPath(id string) string {
	return filepath.Join(s.root, "summaries", id+".json")
}

// SaveMessages merges the new messages into the stored transcript. The
// combined sequence is run through the validator so replays and overlapping
// saves never corrupt the file.
func (s *FileStore) SaveMessages(conversationID string, messages []llm.Message) error {
	if len(messages) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.readMessages(conversationID)
	if err != nil {
		return err
	}

	combined := llm.ValidateMessages(append(stored, messages...))

	data, err := json.MarshalIndent(combined, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode conversation %s: %w", conversationID, err)
	}

	// Write to a temp file and rename so a crash never leaves a torn file.
	path := s.conversationPath(conversationID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write conversation %s: %w", conversationID, err)
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) readMessages(conversationID string) ([]llm.Message, error) {
	data, err := os.ReadFile(s.conversationPath(conversationID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read conversation %s: %w", conversationID, err)
	}

	var messages []llm.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse conversation %s: %w", conversationID, err)
	}
	return messages, nil
}

// LoadMessages returns the stored transcript, validated on the way out.
func (s *FileStore) LoadMessages(conversationID string, limit int) ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.readMessages(conversationID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	messages = llm.ValidateMessages(messages)
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

func (s *FileStore) SaveSummary(conversationID string, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(map[string]string{"summary": summary})
	if err != nil {
		return err
	}
	return os.WriteFile(s.summaryPath(conversationID), data, 0644)
}

func (s *FileStore) LoadSummary(conversationID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.summaryPath(conversationID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	var payload map[string]string
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("failed to parse summary %s: %w", conversationID, err)
	}
	return payload["summary"], nil
}

// ListConversations scans the conversations directory, most recent first.
func (s *FileStore) ListConversations() ([]ConversationInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.root, "conversations"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	infos := make([]ConversationInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")

		fi, err := entry.Info()
		if err != nil {
			continue
		}
		messages, err := s.readMessages(id)
		if err != nil {
			continue
		}
		infos = append(infos, ConversationInfo{
			ID:           id,
			MessageCount: len(messages),
			UpdatedAt:    fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

func (s *FileStore) DeleteConversation(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.conversationPath(conversationID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(s.summaryPath(conversationID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

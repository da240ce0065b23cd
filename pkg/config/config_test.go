package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSystemConfigDefaultsWhenMissing(t *testing.T) {
	cfg := LoadSystemConfig(filepath.Join(t.TempDir(), "nope.json"))
	if cfg.CheckpointInterval != 3 {
		t.Errorf("unexpected default checkpoint interval %d", cfg.CheckpointInterval)
	}
	if cfg.SummarizeRatio != 0.8 {
		t.Errorf("unexpected default summarize ratio %v", cfg.SummarizeRatio)
	}
	if cfg.StorageBackend != "file" {
		t.Errorf("unexpected default storage backend %q", cfg.StorageBackend)
	}
}

func TestLoadSystemConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	payload := `{"checkpoint_interval": 5, "max_tool_rounds": 2, "storage_backend": "sqlite"}`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadSystemConfig(path)
	if cfg.CheckpointInterval != 5 {
		t.Errorf("override not applied: %d", cfg.CheckpointInterval)
	}
	if cfg.MaxToolRounds != 2 {
		t.Errorf("override not applied: %d", cfg.MaxToolRounds)
	}
	if cfg.StorageBackend != "sqlite" {
		t.Errorf("override not applied: %q", cfg.StorageBackend)
	}
	// Untouched fields keep their defaults.
	if cfg.SummarizeRatio != 0.8 {
		t.Errorf("default lost: %v", cfg.SummarizeRatio)
	}
}

func TestLoadSystemConfigCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadSystemConfig(path)
	if cfg.CheckpointInterval != 3 {
		t.Errorf("corrupt file should fall back to defaults, got %d", cfg.CheckpointInterval)
	}
}

func TestLoad(t *testing.T) {
	t.Chdir(t.TempDir())

	payload := `{
		"llm": {"providers": [{"provider": "fake", "model": "m"}]},
		"system_prompt": "Be helpful.",
		"channels": {"web": {"listen": ":9999"}}
	}`
	if err := os.WriteFile("config.json", []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, sysCfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SystemPrompt != "Be helpful." {
		t.Errorf("unexpected system prompt %q", cfg.SystemPrompt)
	}
	if len(cfg.LLM) == 0 {
		t.Error("llm block not captured")
	}
	if _, ok := cfg.Channels["web"]; !ok {
		t.Error("channels block not captured")
	}
	if sysCfg.CheckpointInterval != 3 {
		t.Errorf("missing system.json should yield defaults, got %d", sysCfg.CheckpointInterval)
	}
}

func TestLoadMissingConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, _, err := Load(); err == nil {
		t.Fatal("expected an error when config.json is absent")
	}
}

func TestLoadRejectsMissingLLM(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := os.WriteFile("config.json", []byte(`{"system_prompt": "x"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(); err == nil {
		t.Fatal("expected validation error for missing llm block")
	}
}

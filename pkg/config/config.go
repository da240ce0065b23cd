package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config defines the global application configuration structure.
// This structure maps directly to the config.json file and holds
// business-level settings like channel credentials and LLM provider choices.
type Config struct {
	// Channels contains a map of channel identifiers (e.g., "telegram", "web")
	// to their specific configuration payloads in raw JSON format.
	Channels map[string]jsoniter.RawMessage `json:"channels"`
	// LLM holds the configuration for the LLM provider groups in raw JSON.
	LLM jsoniter.RawMessage `json:"llm"`
	// SystemPrompt is the global persona/instruction string sent to the AI
	// as the initial system message in every conversation.
	SystemPrompt string `json:"system_prompt"`
}

// Validate ensures the configuration structure contains all mandatory fields.
// It acts as a primary guard before the system proceeds to initialization.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	return nil
}

// SystemConfig defines engine-level technical parameters.
// These settings are usually stored in system.json and control the
// performance, reliability, and technical behavior of the engine.
type SystemConfig struct {
	// MaxRetries is the number of times a transient backend error is
	// retried (by the fallback client) before giving up.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the duration to wait (in milliseconds) between
	// consecutive retry attempts.
	RetryDelayMs int `json:"retry_delay_ms"`
	// LLMTimeoutMs is the hard cutoff time (in milliseconds) for a single
	// backend request. The context is cancelled if exceeded.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// ToolTimeoutMs bounds a single tool invocation. A timed-out tool is
	// reported to the model as a tool failure, not raised to the caller.
	ToolTimeoutMs int `json:"tool_timeout_ms"`
	// MaxToolRounds caps the number of backend round-trips within one user
	// turn. Guards against a backend that issues endless tool-call chains.
	MaxToolRounds int `json:"max_tool_rounds"`
	// CheckpointInterval is the number of user turns between durable saves
	// of the conversation buffer.
	CheckpointInterval int `json:"checkpoint_interval"`
	// ContextWindow overrides the backend-reported context window size in
	// tokens. Zero means use the model's own value.
	ContextWindow int `json:"context_window"`
	// SummarizeRatio is the fraction of the context window at which the
	// conversation is collapsed into a summary. Default 0.8.
	SummarizeRatio float64 `json:"summarize_ratio"`
	// SummarizeMessageThreshold triggers summarization by message count
	// regardless of token usage. Zero disables the count trigger.
	SummarizeMessageThreshold int `json:"summarize_message_threshold"`
	// MemoryDir is the root directory for conversation persistence.
	MemoryDir string `json:"memory_dir"`
	// StorageBackend selects the conversation store: "file" or "sqlite".
	StorageBackend string `json:"storage_backend"`
	// TelegramMessageLimit is the maximum character count for a single
	// Telegram message. Longer responses are split into multiple chunks.
	TelegramMessageLimit int `json:"telegram_message_limit"`
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
	// EnableTools globally toggles tool calling. If false, the AI is not
	// provided with any external tools/capabilities.
	EnableTools bool `json:"enable_tools"`
}

// DefaultSystemConfig returns a SystemConfig pointer initialized with hardcoded
// safe default values. This is used as a fallback when the system.json file
// is missing or corrupt, ensuring the engine can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		MaxRetries:           3,
		RetryDelayMs:         500,
		LLMTimeoutMs:         600000,
		ToolTimeoutMs:        120000,
		MaxToolRounds:        10,
		CheckpointInterval:   3,
		SummarizeRatio:       0.8,
		MemoryDir:            "memory",
		StorageBackend:       "file",
		TelegramMessageLimit: 4000,
		LogLevel:             "info",
		EnableTools:          true,
	}
}

// Load reads and parses the JSON configuration files from the current working directory.
// It first attempts to load 'config.json' (app config). If this file is missing, it returns an error.
// Then it calls LoadSystemConfig to load 'system.json'.
// Returns pointers to the loaded Config and SystemConfig, or an error if the mandatory app config fails.
func Load() (*Config, *SystemConfig, error) {
	// 1. Load Application Config
	appPath := "config.json"
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(appFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// 1a. Validate structure integrity
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	// 2. Load System Config independently
	sysCfg := LoadSystemConfig("system.json")

	return &cfg, sysCfg, nil
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg // File not found, use defaults
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg // Parse failed, use defaults
	}

	return cfg
}

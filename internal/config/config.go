package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration parsed from YAML.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Agent      AgentConfig      `yaml:"agent"`
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	Prompts    PromptsConfig    `yaml:"prompts"`
	Output     OutputConfig     `yaml:"output"`
	Processing ProcessingConfig `yaml:"processing"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// APIConfig configures the model endpoint and the web search endpoint.
type APIConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key"`
	APIKeyEnv       string `yaml:"api_key_env"`
	Model           string `yaml:"model"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxRetries      int    `yaml:"max_retries"`
	ReasoningEffort string `yaml:"reasoning_effort"`
	SearxngURL      string `yaml:"searxng_url"`
}

// AgentConfig configures the session loop.
type AgentConfig struct {
	SystemPrompt string   `yaml:"system_prompt"`
	MaxTurns     int      `yaml:"max_turns"`
	ToolsEnabled []string `yaml:"tools_enabled"`
}

// WorkspaceConfig controls per-session workspace directories.
type WorkspaceConfig struct {
	BaseDir         string `yaml:"base_dir"`
	Cleanup         bool   `yaml:"cleanup"`
	PreserveOnError bool   `yaml:"preserve_on_error"`
}

// PromptsConfig selects and filters the prompt source.
type PromptsConfig struct {
	Source          string `yaml:"source"`
	Shuffle         bool   `yaml:"shuffle"`
	Limit           int    `yaml:"limit"`
	MaxPromptTokens int    `yaml:"max_prompt_tokens"`
}

// OutputConfig controls dataset serialization.
type OutputConfig struct {
	DatasetFile string `yaml:"dataset_file"`
	ErrorFile   string `yaml:"error_file"`
	AppendMode  bool   `yaml:"append_mode"`
}

// ProcessingConfig controls fan-out and resumption.
type ProcessingConfig struct {
	Concurrency int  `yaml:"concurrency"`
	Resume      bool `yaml:"resume"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.API.BaseURL = "https://openrouter.ai/api/v1"
	cfg.API.APIKeyEnv = "OPENROUTER_API_KEY"
	cfg.API.TimeoutSeconds = 120
	cfg.API.MaxRetries = 3
	cfg.Agent.MaxTurns = 50
	cfg.Agent.ToolsEnabled = []string{
		"read_file", "write_file", "edit_file",
		"list_directory", "search_code", "run_command",
	}
	cfg.Workspace.BaseDir = "workspaces"
	cfg.Workspace.Cleanup = true
	cfg.Workspace.PreserveOnError = true
	cfg.Prompts.Source = "prompts"
	cfg.Output.DatasetFile = "dataset.jsonl"
	cfg.Output.AppendMode = true
	cfg.Processing.Concurrency = 1
	cfg.Processing.Resume = true
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads the YAML config at path, layering it over the defaults and
// resolving the API key from the environment when the file leaves it blank.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.API.APIKey == "" {
		env := cfg.API.APIKeyEnv
		if env == "" {
			env = "OPENROUTER_API_KEY"
		}
		cfg.API.APIKey = os.Getenv(env)
	}

	return cfg, nil
}

// WriteDefault writes the default configuration to path, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}

// Package config loads and saves the summarizeit configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "summarizeit"
)

// ConfigDir returns the standard config directory.
// Windows: %APPDATA%\summarizeit\
// macOS/Linux: ~/.config/summarizeit/
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
// e.g., ~/.config/summarizeit/config.yml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

type Config struct {
	// WorkDir is where per-session pipeline artifacts are written
	WorkDir string `yaml:"work_dir,omitempty"`

	// Server configuration for `summarizeit serve`
	Server ServerConfig `yaml:"server,omitempty"`

	// AI provider configuration
	AI AIConfig `yaml:"ai,omitempty"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	// Port is the HTTP listen port (default: 8080)
	Port int `yaml:"port,omitempty"`

	// MaxConcurrent is the max number of concurrent summarize jobs (default: 2)
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`

	// APIKey for authentication (optional, if set API requests must include X-API-Key header)
	APIKey string `yaml:"api_key,omitempty"`
}

// AIConfig holds provider and model selection. API keys are never stored in
// the file; they come from OPENAI_API_KEY / ANTHROPIC_API_KEY.
type AIConfig struct {
	// SummaryProvider selects the chat-completion backend: "openai" or "anthropic"
	SummaryProvider string `yaml:"summary_provider,omitempty"`

	// SummaryModel overrides the provider's default chat model
	SummaryModel string `yaml:"summary_model,omitempty"`

	// TranscriptionModel is the Whisper model name (default: whisper-1)
	TranscriptionModel string `yaml:"transcription_model,omitempty"`
}

// OpenAIKey returns the OpenAI API key from the environment.
func (c *Config) OpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// AnthropicKey returns the Anthropic API key from the environment.
func (c *Config) AnthropicKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// SummarizerKey returns the API key matching the configured summary provider.
func (c *Config) SummarizerKey() string {
	if c.AI.SummaryProvider == "anthropic" {
		return c.AnthropicKey()
	}
	return c.OpenAIKey()
}

// DefaultWorkDir returns the default directory for pipeline artifacts.
func DefaultWorkDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppDirName)
	}
	return filepath.Join(home, ".cache", AppDirName)
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		WorkDir: DefaultWorkDir(),
		Server: ServerConfig{
			Port:          8080,
			MaxConcurrent: 2,
		},
		AI: AIConfig{
			SummaryProvider:    "openai",
			SummaryModel:       "gpt-4o-mini",
			TranscriptionModel: "whisper-1",
		},
	}
}

// Exists checks if config file exists
func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config from ~/.config/summarizeit/config.yml
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.WorkDir = expandPath(cfg.WorkDir)
	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults fills in zero values after a load.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.WorkDir == "" {
		c.WorkDir = def.WorkDir
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.MaxConcurrent <= 0 {
		c.Server.MaxConcurrent = def.Server.MaxConcurrent
	}
	if c.AI.SummaryProvider == "" {
		c.AI.SummaryProvider = def.AI.SummaryProvider
	}
	if c.AI.SummaryModel == "" {
		c.AI.SummaryModel = def.AI.SummaryModel
	}
	if c.AI.TranscriptionModel == "" {
		c.AI.TranscriptionModel = def.AI.TranscriptionModel
	}
}

// expandPath expands the tilde (~) in the path to the user's home directory.
// Both separators are handled so a config file written on Windows still
// resolves on macOS/Linux.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		// Only expand if it's explicitly "~", "~/", or "~\"
		if len(path) == 1 || path[1] == '/' || path[1] == '\\' {
			home, err := os.UserHomeDir()
			if err == nil {
				subPath := path[1:]
				if len(subPath) > 0 && (subPath[0] == '/' || subPath[0] == '\\') {
					subPath = subPath[1:]
				}
				return filepath.Join(home, subPath)
			}
		}
	}

	return path
}

// Save writes the config to ~/.config/summarizeit/config.yml
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# summarizeit configuration file\n# Run 'summarizeit init' to regenerate with defaults\n\n"
	content := header + string(data)

	return os.WriteFile(configPath, []byte(content), 0644)
}

// Init creates a new config.yml with default values
func Init() error {
	if Exists() {
		path, _ := ConfigPath()
		return fmt.Errorf("%s already exists", path)
	}
	return Save(DefaultConfig())
}

// LoadOrDefault loads config if it exists, otherwise returns defaults
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = DefaultConfig()
	}
	return cfg
}

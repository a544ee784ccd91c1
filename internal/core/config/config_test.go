package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty", "", ""},
		{"tilde only", "~", home},
		{"tilde slash", "~/work", filepath.Join(home, "work")},
		{"tilde backslash", `~\work`, filepath.Join(home, "work")},
		{"no tilde", "/var/data", "/var/data"},
		{"tilde user is untouched", "~alice/work", "~alice/work"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandPath(tt.path); got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", cfg.Server.MaxConcurrent)
	}
	if cfg.AI.SummaryProvider != "openai" {
		t.Errorf("SummaryProvider = %q, want openai", cfg.AI.SummaryProvider)
	}
	if cfg.AI.TranscriptionModel != "whisper-1" {
		t.Errorf("TranscriptionModel = %q, want whisper-1", cfg.AI.TranscriptionModel)
	}
	if cfg.WorkDir == "" {
		t.Error("WorkDir is empty")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	def := DefaultConfig()
	if cfg.Server.Port != def.Server.Port {
		t.Errorf("Port = %d, want %d", cfg.Server.Port, def.Server.Port)
	}
	if cfg.AI.SummaryModel != def.AI.SummaryModel {
		t.Errorf("SummaryModel = %q, want %q", cfg.AI.SummaryModel, def.AI.SummaryModel)
	}

	// Explicit values survive
	cfg2 := &Config{Server: ServerConfig{Port: 9999}}
	cfg2.applyDefaults()
	if cfg2.Server.Port != 9999 {
		t.Errorf("applyDefaults overwrote explicit port: %d", cfg2.Server.Port)
	}
}

func TestSummarizerKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	openaiCfg := &Config{AI: AIConfig{SummaryProvider: "openai"}}
	if got := openaiCfg.SummarizerKey(); got != "sk-openai" {
		t.Errorf("SummarizerKey() = %q, want sk-openai", got)
	}

	anthropicCfg := &Config{AI: AIConfig{SummaryProvider: "anthropic"}}
	if got := anthropicCfg.SummarizerKey(); got != "sk-ant" {
		t.Errorf("SummarizerKey() = %q, want sk-ant", got)
	}
}

package kernel_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailored-agentic-units/chatgraph/kernel"
)

func TestDefaultConfig(t *testing.T) {
	cfg := kernel.DefaultConfig()

	if cfg.Workflow.MaxIterations != 25 {
		t.Errorf("got MaxIterations %d, want 25", cfg.Workflow.MaxIterations)
	}
	if cfg.Workflow.CompactionThreshold != 16 {
		t.Errorf("got CompactionThreshold %d, want 16", cfg.Workflow.CompactionThreshold)
	}
	if cfg.Checkpoint.Store != "memory" {
		t.Errorf("got checkpoint store %q, want memory", cfg.Checkpoint.Store)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("got addr %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Observer != "slog" {
		t.Errorf("got observer %q, want slog", cfg.Observer)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := kernel.DefaultConfig()

	source := &kernel.Config{Observer: "noop", Metrics: true}
	source.Workflow.MaxIterations = 5
	source.Workflow.SystemPrompt = "merged prompt"
	source.Provider.Model = "gpt-4o"

	cfg.Merge(source)

	if cfg.Workflow.MaxIterations != 5 {
		t.Errorf("got MaxIterations %d, want 5", cfg.Workflow.MaxIterations)
	}
	if cfg.Workflow.SystemPrompt != "merged prompt" {
		t.Errorf("got SystemPrompt %q, want %q", cfg.Workflow.SystemPrompt, "merged prompt")
	}
	if cfg.Provider.Model != "gpt-4o" {
		t.Errorf("got model %q, want gpt-4o", cfg.Provider.Model)
	}
	if cfg.Observer != "noop" || !cfg.Metrics {
		t.Errorf("got observer %q metrics %v, want noop true", cfg.Observer, cfg.Metrics)
	}
}

func TestConfig_Merge_ZeroValuesPreserveDefaults(t *testing.T) {
	cfg := kernel.DefaultConfig()
	original := cfg

	cfg.Merge(&kernel.Config{})

	if cfg.Workflow.MaxIterations != original.Workflow.MaxIterations {
		t.Errorf("got MaxIterations %d, want %d (preserved default)", cfg.Workflow.MaxIterations, original.Workflow.MaxIterations)
	}
	if cfg.Provider.Model != original.Provider.Model {
		t.Errorf("got model %q, want %q", cfg.Provider.Model, original.Provider.Model)
	}
	if cfg.Observer != original.Observer {
		t.Errorf("got observer %q, want %q", cfg.Observer, original.Observer)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "config.yaml",
			content: `
provider:
  model: gpt-4o
workflow:
  max_iterations: 7
  gateway_timeout: 45s
  compaction:
    keep_messages: 4
checkpoint:
  store: sqlite
  path: /tmp/threads.db
`,
		},
		{
			name:    "json",
			file:    "config.json",
			content: `{"provider": {"model": "gpt-4o"}, "workflow": {"max_iterations": 7, "gateway_timeout": "45s", "compaction": {"keep_messages": 4}}, "checkpoint": {"store": "sqlite", "path": "/tmp/threads.db"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			cfg, err := kernel.LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}

			if cfg.Provider.Model != "gpt-4o" {
				t.Errorf("got model %q, want gpt-4o", cfg.Provider.Model)
			}
			if cfg.Workflow.MaxIterations != 7 {
				t.Errorf("got MaxIterations %d, want 7", cfg.Workflow.MaxIterations)
			}
			if cfg.Workflow.GatewayTimeout != 45*time.Second {
				t.Errorf("got GatewayTimeout %v, want 45s", cfg.Workflow.GatewayTimeout)
			}
			if cfg.Workflow.Compaction.KeepMessages != 4 {
				t.Errorf("got KeepMessages %d, want 4", cfg.Workflow.Compaction.KeepMessages)
			}
			if cfg.Checkpoint.Store != "sqlite" || cfg.Checkpoint.Path != "/tmp/threads.db" {
				t.Errorf("got checkpoint %+v", cfg.Checkpoint)
			}
			if cfg.Workflow.CompactionThreshold != 16 {
				t.Errorf("got CompactionThreshold %d, want default 16", cfg.Workflow.CompactionThreshold)
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := kernel.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("workflow: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := kernel.LoadConfig(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("MODEL_NAME", "llama3")
	t.Setenv("TEMPERATURE", "0.3")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("GOOGLE_CSE_ID", "cse")
	t.Setenv("CHATGRAPH_ADDR", ":9000")

	cfg := kernel.DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Provider.APIKey != "sk-test" || cfg.Provider.BaseURL != "http://localhost:11434/v1" || cfg.Provider.Model != "llama3" {
		t.Errorf("got provider %+v", cfg.Provider)
	}
	if cfg.Provider.Temperature < 0.29 || cfg.Provider.Temperature > 0.31 {
		t.Errorf("got temperature %v, want 0.3", cfg.Provider.Temperature)
	}
	if !cfg.Search.Enabled() {
		t.Error("search should be enabled by GOOGLE_API_KEY and GOOGLE_CSE_ID")
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("got addr %q, want :9000", cfg.Server.Addr)
	}
}

func TestConfig_ApplyEnv_InvalidTemperature(t *testing.T) {
	t.Setenv("TEMPERATURE", "warm")

	cfg := kernel.DefaultConfig()
	if err := cfg.ApplyEnv(); err == nil {
		t.Error("expected error for invalid TEMPERATURE")
	}
}

package kernel

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/chatgraph/checkpoint"
	"github.com/tailored-agentic-units/chatgraph/provider/openai"
	"github.com/tailored-agentic-units/chatgraph/server"
	"github.com/tailored-agentic-units/chatgraph/tools/search"
	"github.com/tailored-agentic-units/chatgraph/workflow"
)

const defaultObserver = "slog"

// Config holds initialization parameters for all kernel subsystems.
// Each subsystem section delegates to that subsystem's config-driven constructor.
type Config struct {
	Provider   openai.Config     `json:"provider" yaml:"provider"`
	Search     search.Config     `json:"search" yaml:"search"`
	Workflow   workflow.Config   `json:"workflow" yaml:"workflow"`
	Checkpoint checkpoint.Config `json:"checkpoint" yaml:"checkpoint"`
	Server     server.Config     `json:"server" yaml:"server"`

	// Observer names a registered observability observer.
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty"`

	// Metrics adds a Prometheus observer and exposes its registry.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Provider:   openai.DefaultConfig(),
		Search:     search.DefaultConfig(),
		Workflow:   workflow.DefaultConfig(),
		Checkpoint: checkpoint.DefaultConfig(),
		Server:     server.DefaultConfig(),
		Observer:   defaultObserver,
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Provider.Merge(&source.Provider)
	c.Search.Merge(&source.Search)
	c.Workflow.Merge(&source.Workflow)
	c.Checkpoint.Merge(&source.Checkpoint)
	c.Server.Merge(&source.Server)

	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.Metrics {
		c.Metrics = true
	}
}

// ApplyEnv overlays credentials and endpoint settings from the environment.
func (c *Config) ApplyEnv() error {
	env := map[string]*string{
		"OPENAI_API_KEY":  &c.Provider.APIKey,
		"OPENAI_BASE_URL": &c.Provider.BaseURL,
		"MODEL_NAME":      &c.Provider.Model,
		"GOOGLE_API_KEY":  &c.Search.APIKey,
		"GOOGLE_CSE_ID":   &c.Search.EngineID,
		"CHATGRAPH_ADDR":  &c.Server.Addr,
	}
	for key, field := range env {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid TEMPERATURE %q: %w", v, err)
		}
		c.Provider.Temperature = float32(t)
	}
	return nil
}

// LoadConfig reads a YAML or JSON config file, merges it with defaults, and
// returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

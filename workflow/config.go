package workflow

import (
	"time"

	"github.com/tailored-agentic-units/chatgraph/compaction"
)

const (
	defaultCompactionThreshold = 16
	defaultMaxIterations       = 25
	defaultGatewayTimeout      = 2 * time.Minute
	defaultToolTimeout         = 30 * time.Second
)

// DefaultSystemPrompt is the instruction message placed ahead of every
// conversation.
const DefaultSystemPrompt = "You are a friendly and helpful assistant, welcoming and approachable towards users. " +
	"Your knowledge of recent events is limited, so consult the available tools whenever " +
	"current information would improve your answer. " +
	"Present responses in a clear, structured and logical manner, with conclusions that are easy to follow. " +
	"Keep the tone light and engaging."

// Config holds workflow parameters.
type Config struct {
	// SystemPrompt is the leading instruction message. The running summary,
	// when present, is appended to it.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`

	// CompactionThreshold is the message count above which a terminal agent
	// response schedules compaction.
	CompactionThreshold int `json:"compaction_threshold,omitempty" yaml:"compaction_threshold,omitempty"`

	// MaxIterations bounds the agent calls of a single turn.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`

	// DisableStreaming makes the agent step use Invoke instead of Stream.
	DisableStreaming bool `json:"disable_streaming,omitempty" yaml:"disable_streaming,omitempty"`

	// GatewayTimeout bounds one model gateway call. Zero disables the bound.
	GatewayTimeout time.Duration `json:"gateway_timeout,omitempty" yaml:"gateway_timeout,omitempty"`

	// ToolTimeout bounds one tool execution. Zero disables the bound.
	ToolTimeout time.Duration `json:"tool_timeout,omitempty" yaml:"tool_timeout,omitempty"`

	Compaction compaction.Config `json:"compaction" yaml:"compaction"`
}

// DefaultConfig returns the default workflow configuration.
func DefaultConfig() Config {
	return Config{
		SystemPrompt:        DefaultSystemPrompt,
		CompactionThreshold: defaultCompactionThreshold,
		MaxIterations:       defaultMaxIterations,
		GatewayTimeout:      defaultGatewayTimeout,
		ToolTimeout:         defaultToolTimeout,
		Compaction:          compaction.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.SystemPrompt != "" {
		c.SystemPrompt = source.SystemPrompt
	}
	if source.CompactionThreshold > 0 {
		c.CompactionThreshold = source.CompactionThreshold
	}
	if source.MaxIterations > 0 {
		c.MaxIterations = source.MaxIterations
	}
	if source.DisableStreaming {
		c.DisableStreaming = true
	}
	if source.GatewayTimeout > 0 {
		c.GatewayTimeout = source.GatewayTimeout
	}
	if source.ToolTimeout > 0 {
		c.ToolTimeout = source.ToolTimeout
	}
	c.Compaction.Merge(&source.Compaction)
}

// graphBudget converts the agent-call bound into a node-execution bound:
// dispatch, one agent and one tools node per round, and the exit node.
func (c Config) graphBudget() int {
	return 2*c.MaxIterations + 1
}

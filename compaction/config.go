package compaction

import "time"

const (
	defaultKeepMessages = 2
	defaultTimeout      = 2 * time.Minute
)

// Config holds compaction parameters.
type Config struct {
	// KeepMessages is the number of trailing messages a pass retains.
	KeepMessages int `json:"keep_messages" yaml:"keep_messages"`

	// Timeout bounds one Summarizer call. Zero disables the bound.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultConfig returns the default compaction configuration.
func DefaultConfig() Config {
	return Config{
		KeepMessages: defaultKeepMessages,
		Timeout:      defaultTimeout,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.KeepMessages > 0 {
		c.KeepMessages = source.KeepMessages
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
}

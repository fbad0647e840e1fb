package server

import "time"

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds HTTP listener parameters.
type Config struct {
	Addr            string        `json:"addr,omitempty" yaml:"addr,omitempty"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            defaultAddr,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.ShutdownTimeout > 0 {
		c.ShutdownTimeout = source.ShutdownTimeout
	}
}

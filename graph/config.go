package graph

// Config holds graph construction parameters.
type Config struct {
	// Name identifies the graph in events.
	Name string `json:"name" yaml:"name"`

	// MaxIterations bounds node executions per run.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
}

// DefaultConfig returns a Config with a 1000 node-execution budget.
func DefaultConfig(name string) Config {
	return Config{
		Name:          name,
		MaxIterations: 1000,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.MaxIterations > 0 {
		c.MaxIterations = source.MaxIterations
	}
}

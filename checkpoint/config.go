package checkpoint

// Config selects and configures the checkpoint store.
type Config struct {
	// Store is the registered store name ("memory", "sqlite" or "file").
	Store string `json:"store" yaml:"store"`

	// Path is the database file of the sqlite store or the directory of
	// the file store.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// DefaultConfig returns the in-memory store configuration.
func DefaultConfig() Config {
	return Config{
		Store: "memory",
		Path:  "chatgraph.db",
	}
}

// Merge overlays non-zero fields of source onto c.
func (c *Config) Merge(source *Config) {
	if source.Store != "" {
		c.Store = source.Store
	}
	if source.Path != "" {
		c.Path = source.Path
	}
}

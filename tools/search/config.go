package search

const defaultResults = 5

// Config holds Custom Search credentials and limits.
type Config struct {
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	EngineID string `json:"engine_id,omitempty" yaml:"engine_id,omitempty"`
	Results  int    `json:"results,omitempty" yaml:"results,omitempty"`

	// Endpoint overrides the API base URL.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// DefaultConfig returns the default search configuration. Credentials come
// from the environment (see kernel.Config.ApplyEnv).
func DefaultConfig() Config {
	return Config{Results: defaultResults}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.EngineID != "" {
		c.EngineID = source.EngineID
	}
	if source.Results > 0 {
		c.Results = source.Results
	}
	if source.Endpoint != "" {
		c.Endpoint = source.Endpoint
	}
}

// Enabled reports whether credentials are present.
func (c Config) Enabled() bool {
	return c.APIKey != "" && c.EngineID != ""
}

package openai

const (
	defaultModel = "gpt-4o-mini"

	// DefaultSummaryPrompt is appended as a trailing system message to the
	// messages being summarized.
	DefaultSummaryPrompt = "You are a summarizer who tracks chat message history to ensure no important detail is lost.\n" +
		"You encounter different message types, such as Human or AI, and your task is to summarize the interactions between them.\n" +
		"Focus on capturing essential details, including questions, locations, names, and any other critical information.\n" +
		"Now, create a summary of the conversation above:\n"
)

// Config holds OpenAI-compatible endpoint parameters.
type Config struct {
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`

	// Temperature is sent as-is. The API default applies when it is zero.
	Temperature float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// SummaryModel overrides Model for summarization calls.
	SummaryModel  string `json:"summary_model,omitempty" yaml:"summary_model,omitempty"`
	SummaryPrompt string `json:"summary_prompt,omitempty" yaml:"summary_prompt,omitempty"`
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() Config {
	return Config{
		Model:         defaultModel,
		SummaryPrompt: DefaultSummaryPrompt,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.Temperature > 0 {
		c.Temperature = source.Temperature
	}
	if source.SummaryModel != "" {
		c.SummaryModel = source.SummaryModel
	}
	if source.SummaryPrompt != "" {
		c.SummaryPrompt = source.SummaryPrompt
	}
}

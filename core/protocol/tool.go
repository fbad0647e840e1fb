package protocol

// Tool describes a function the agent may request. Parameters is a JSON
// Schema object describing the function's input.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

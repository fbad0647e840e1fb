package kernel

import "github.com/tailored-agentic-units/chatgraph/workflow"

// ErrMaxIterations is returned by Submit when a turn exhausts its agent call
// budget without a final response.
var ErrMaxIterations = workflow.ErrMaxIterations

package protocol

// ResolvedToolCalls returns the set of tool-call IDs answered by a tool result
// somewhere in messages.
func ResolvedToolCalls(messages []Message) map[string]struct{} {
	resolved := make(map[string]struct{})
	for _, msg := range messages {
		if msg.Role == RoleTool && msg.ToolCallID != "" {
			resolved[msg.ToolCallID] = struct{}{}
		}
	}
	return resolved
}

// PendingToolCalls returns, in request order, the IDs of tool calls issued by
// agent messages that have no matching tool result.
func PendingToolCalls(messages []Message) []string {
	resolved := ResolvedToolCalls(messages)

	var pending []string
	for _, msg := range messages {
		if msg.Role != RoleAssistant {
			continue
		}
		for _, call := range msg.ToolCalls {
			if _, ok := resolved[call.ID]; !ok {
				pending = append(pending, call.ID)
			}
		}
	}
	return pending
}

// Unresolved reports whether msg is an agent message with at least one tool
// call missing from resolved.
func Unresolved(msg Message, resolved map[string]struct{}) bool {
	if msg.Role != RoleAssistant {
		return false
	}
	for _, call := range msg.ToolCalls {
		if _, ok := resolved[call.ID]; !ok {
			return true
		}
	}
	return false
}

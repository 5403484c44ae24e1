package instrumentation

// UnknownToolLabel replaces tool names that are not registered.
const UnknownToolLabel = "unknown"

// ToolLabel returns the metric label for a tool name. Names sent by clients
// are unbounded, so anything not in the registered set collapses into
// UnknownToolLabel.
//
// Example:
//
//	ToolLabel("get_linkedin_email", known)  // "get_linkedin_email"
//	ToolLabel("rm_rf", known)               // "unknown"
func ToolLabel(name string, known func(string) bool) string {
	if name == "" || known == nil || !known(name) {
		return UnknownToolLabel
	}
	return name
}

// Operation types for upstream metrics.
const (
	OperationList  = "list"
	OperationGet   = "get"
	OperationQuery = "query"
)

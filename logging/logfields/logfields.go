// Package logfields defines common logging fields which are used across packages
package logfields

const (
	// LogSubsys is the field denoting the subsystem when logging
	LogSubsys = "subsys"

	// Grammar is the grammar name
	Grammar = "grammar"

	// Scope is the root scope of a grammar
	Scope = "scope"

	// Context is the name of a grammar context
	Context = "context"

	// Contexts is the number of contexts in a grammar or a list of context names
	Contexts = "contexts"

	// Rules is the number of rules
	Rules = "rules"

	// Key is a grammar definition key
	Key = "key"

	// Line is a line number, 1-based
	Line = "line"

	// Offset is a byte offset within a line
	Offset = "offset"

	// Depth is the context stack depth
	Depth = "depth"
)
